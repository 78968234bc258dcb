// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/config"
	"github.com/staranto/levctl/internal/event"
	"github.com/staranto/levctl/internal/fetch"
	"github.com/staranto/levctl/internal/listing"
)

func init() {
	cfg = config.Config
}

var cfg config.Type

// Flags carry parse state, so every command gets its own instances.
func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the row attributes",
		HideDefault: true,
	}
}

func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: configSources(params[0], "color"),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: configSources(params[0], "output"),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: configSources(params[0], "titles"),
			Value:   false,
		},
	}

	return
}

// NewEventFlags are the flags that shape the event list request and the
// image keys derived from it.
func NewEventFlags(ns string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "endpoint",
			Aliases: []string{"e"},
			Usage:   "event list endpoint",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LEVCTL_ENDPOINT")),
			Value:   event.DefaultEndpoint,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, URLValidator)
			},
		}),
		&cli.IntFlag{
			Name:    "rows",
			Aliases: []string{"n"},
			Usage:   "events per page",
			Sources: configSources(ns, "rows"),
			Value:   event.DefaultPageParams().RowsPerPage,
			Validator: func(value int) error {
				return FlagValidators(value, PositiveValidator)
			},
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "page number, starting at 1",
			Value: 1,
			Validator: func(value int) error {
				return FlagValidators(value, PositiveValidator)
			},
		},
		&cli.FloatFlag{
			Name:    "latitude",
			Usage:   "latitude to search around",
			Sources: configSources(ns, "latitude"),
		},
		&cli.FloatFlag{
			Name:    "longitude",
			Usage:   "longitude to search around",
			Sources: configSources(ns, "longitude"),
		},
		&cli.IntFlag{
			Name:  "category",
			Usage: "only events in this category id",
		},
		&cli.StringFlag{
			Name:  "search",
			Usage: "free text search",
		},
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "image-template",
			Usage:   "image key template using {id}, {imagetype} and {index}",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LEVCTL_IMAGE_TEMPLATE")),
			Value:   string(listing.DefaultKeyTemplate),
		}),
	}
}

// NewCacheFlags are the flags that configure the asset cache and its
// origins.
func NewCacheFlags(ns string) []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "timeout for each network request",
			Sources: withEnv(configSources(ns, "timeout"), "LEVCTL_TIMEOUT"),
			Value:   fetch.DefaultTimeout,
		},
		&cli.IntFlag{
			Name:    "max-entries",
			Usage:   "most images kept in memory, 0 for no limit",
			Sources: configSources(ns, "max-entries"),
			Validator: func(value int) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.StringFlag{
			Name:    "max-bytes",
			Usage:   "most image bytes kept in memory, e.g. 64MB, 0 for no limit",
			Sources: configSources(ns, "max-bytes"),
			Value:   "64MiB",
			Validator: func(value string) error {
				return FlagValidators(value, ByteSizeValidator)
			},
		},
		&cli.StringSliceFlag{
			Name:    "memcached",
			Usage:   "memcached servers shared by levctl processes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LEVCTL_MEMCACHED")),
		},
		&cli.DurationFlag{
			Name:    "memcached-ttl",
			Usage:   "lifetime of images stored in memcached",
			Sources: configSources(ns, "memcached-ttl"),
			Value:   time.Hour,
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Usage:   "region for s3:// image keys",
			Sources: configSources(ns, "s3-region"),
		},
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "endpoint override for s3:// image keys",
			Sources: configSources(ns, "s3-endpoint"),
		},
		&cli.StringFlag{
			Name:    "s3-profile",
			Usage:   "AWS profile for s3:// image keys",
			Sources: configSources(ns, "s3-profile"),
		},
		&cli.BoolWithInverseFlag{
			Name:    "validate",
			Usage:   "reject images that do not decode so they are never cached",
			Sources: configSources(ns, "validate"),
			Value:   true,
		},
		&cli.BoolFlag{
			Name:        "stats",
			Usage:       "print cache metrics to stderr when done",
			HideDefault: true,
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// configSources looks name up under the ns namespace of the config file,
// then at the top level.
func configSources(ns string, name string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(cfg.Source)),
		yaml.YAML(name, altsrc.StringSourcer(cfg.Source)),
	)
}

// withEnv puts env vars ahead of the rest of chain.
func withEnv(chain cli.ValueSourceChain, envs ...string) cli.ValueSourceChain {
	srcs := make([]cli.ValueSource, 0, len(envs)+len(chain.Chain))
	for _, e := range envs {
		srcs = append(srcs, cli.EnvVar(e))
	}
	return cli.NewValueSourceChain(append(srcs, chain.Chain...)...)
}

// pathHas checks if the given binary is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
