// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/config"
	"github.com/staranto/levctl/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	if len(args) == 0 {
		return nil, errors.New("no program name in arguments")
	}

	// The arg[1] immediately following the binary (arg[0]) is the levctl
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}
	config.Config.Namespace = ns

	return NewApp(meta.Meta{
		Args:    args,
		Config:  config.Config,
		Context: ctx,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}), nil
}

// NewApp builds the levctl command tree around m.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:      "levctl",
		Usage:     "Local Events Control",
		Writer:    stdout(m),
		ErrWriter: stderr(m),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "levctl version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		BrowseCommandBuilder(app, m),
		CompletionCommandBuilder(app, m),
		FetchCommandBuilder(app, m),
		ListCommandBuilder(app, m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}
