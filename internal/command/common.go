// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/attrs"
	"github.com/staranto/levctl/internal/meta"
	"github.com/staranto/levctl/internal/output"
)

// examples back --tldr when the tldr client is not installed.
var examples = map[string][][2]string{
	"browse": {
		{"levctl browse", "browse the first page of events"},
		{"levctl browse --memcached localhost:11211", "share fetched images between processes"},
	},
	"fetch": {
		{"levctl fetch -r 10 URL", "load one image ten times, fetching it once"},
		{"levctl fetch --no-validate s3://bucket/key", "load an S3 object as opaque bytes"},
	},
	"list": {
		{"levctl list --titles", "list the first page of events"},
		{"levctl list -f 'title^Jazz' -s=-id", "filter by title, newest id first"},
		{"levctl list --probe -a dims,status", "load every image and report its dimensions"},
	},
}

// ShortCircuitTLDR checks the --tldr flag and, if present, runs
// `tldr levctl <subcmd>` and returns true so the caller can exit early.
// Without a tldr client the built-in examples are printed instead.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if !cmd.Bool("tldr") {
		return false
	}

	m := GetMeta(cmd)
	if _, err := exec.LookPath("tldr"); err != nil {
		output.DumpExamples(stdout(m), examples[subcmd])
		return true
	}

	c := exec.CommandContext(ctx, "tldr", "levctl", subcmd)
	c.Stdout = stdout(m)
	c.Stderr = stderr(m)
	if err := c.Run(); err != nil {
		log.WithError(err).Debug("tldr failed")
	}
	return true
}

// DumpSchemaIfRequested prints the attribute keys of t when --schema is set,
// and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(stdout(GetMeta(cmd)), t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with the command's default attrs. --attrs
// is merged in later by output.OptionsFromCommand.
func BuildAttrs(defaults ...string) (al attrs.AttrList) {
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			log.WithError(err).Warnf("bad default attr %q", d)
		}
	}
	return
}

// EmitRows marshals rows to JSON and passes them to the common output
// routine.
func EmitRows(rows any, opts output.Options, w io.Writer) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	return output.SliceDiceSpit(raw, opts, w)
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

func stdout(m meta.Meta) io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func stderr(m meta.Meta) io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}

// QueryCommandBuilder is a helper that constructs a cli.Command for the
// subcommands using a consistent pattern. The builder wires metadata, adds
// the tldr flag and, for commands that print rows, the schema and global
// output flags.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
	// Rows adds --schema and the global output flags.
	Rows bool
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{newTLDRFlag()}, qcb.Flags...)
	if qcb.Rows {
		flags = append(flags, newSchemaFlag())
		flags = append(flags, NewGlobalFlags(qcb.Name)...)
	}

	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,
	}
}
