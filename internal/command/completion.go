// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/meta"
)

const bashCompletionScript = `# bash completion for levctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_levctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "browse fetch list completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr --schema"
    local event="--endpoint -e --rows -n --page --latitude --longitude --category --search --image-template"
    local cache="--timeout --max-entries --max-bytes --memcached --memcached-ttl --s3-region --s3-endpoint --s3-profile --validate --no-validate --stats"

    case "$cmd" in
        browse)
            local opts="--tldr $event $cache"
            ;;
        fetch)
            local opts="$common $cache --repeat -r"
            ;;
        list)
            local opts="$common $event $cache --probe -p"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _levctl levctl
`

const zshCompletionScript = `#compdef levctl

_levctl() {
  local -a cmds
  cmds=(
    'browse:browse local events interactively'
    'fetch:load assets through the cache'
    'list:list one page of local events'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump row attributes]'
  '--tldr[show tldr page]'
  )

  local -a event
  event=(
  '(-e --endpoint)'{-e,--endpoint}'[event list endpoint]:url'
  '(-n --rows)'{-n,--rows}'[events per page]:rows'
  '--page[page number]:page'
  '--latitude[latitude]:latitude'
  '--longitude[longitude]:longitude'
  '--category[category id]:category'
  '--search[free text search]:search'
  '--image-template[image key template]:template'
  )

  local -a cache
  cache=(
  '--timeout[network timeout]:duration'
  '--max-entries[most images in memory]:count'
  '--max-bytes[most image bytes in memory]:size'
  '*--memcached[memcached server]:server'
  '--memcached-ttl[memcached lifetime]:duration'
  '--s3-region[s3 region]:region'
  '--s3-endpoint[s3 endpoint]:url'
  '--s3-profile[AWS profile]:profile'
  '(--validate --no-validate)--validate[reject undecodable images]'
  '(--validate --no-validate)--no-validate[accept any bytes]'
  '--stats[print cache metrics]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'levctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    browse)
      _arguments -C '--tldr[show tldr page]' $event $cache
      ;;
    fetch)
      _arguments -C $common $cache \
        '(-r --repeat)'{-r,--repeat}'[concurrent loads per key]:count' \
        '*:key:_urls'
      ;;
    list)
      _arguments -C $common $event $cache \
        '(-p --probe)'{-p,--probe}'[load every image]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _levctl levctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	out := stdout(m)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(out, bashCompletionScript)
	case "zsh":
		fmt.Fprint(out, zshCompletionScript)
	case "":
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(out, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(out, bashCompletionScript)
		} else {
			fmt.Fprintln(stderr(m), "usage: levctl completion [bash|zsh]")
		}
	default:
		return fmt.Errorf("unsupported shell %q, use bash or zsh", shell)
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "levctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
