// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/asset"
	"github.com/staranto/levctl/internal/event"
	"github.com/staranto/levctl/internal/listing"
	"github.com/staranto/levctl/internal/meta"
	"github.com/staranto/levctl/internal/output"
)

// eventRow is one line of list output.
type eventRow struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	// Set by --probe.
	Size   string `json:"size,omitempty"`
	Dims   string `json:"dims,omitempty"`
	Status string `json:"status,omitempty"`
}

// ListCommandAction fetches one page of events and prints it. With --probe
// every image is loaded through the asset cache as well.
func ListCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "list") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(eventRow{})) {
		return nil
	}

	opts, err := output.OptionsFromCommand(cmd, BuildAttrs("id", "title"))
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", opts.Attrs.String())

	rt, err := newRuntime(cmd, m)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl := listing.New(rt.source,
		listing.WithParams(PageParamsFromCommand(cmd)),
		listing.WithKeyTemplate(listing.KeyTemplate(cmd.String("image-template"))),
	)
	if err := ctrl.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", listing.ErrorMessage, err)
	}

	snap := ctrl.Snapshot()
	if snap.State == listing.Empty {
		fmt.Fprintln(stderr(m), snap.Message)
		return nil
	}

	rows := make([]eventRow, len(snap.Rows))
	for i, r := range snap.Rows {
		rows[i] = eventRow{Index: r.Index, ID: r.ID, Title: r.Title, Image: r.ImageKey}
	}

	if cmd.Bool("probe") {
		probe(ctx, rt.cache, rows)
	}

	if err := EmitRows(rows, opts, stdout(m)); err != nil {
		return err
	}

	if cmd.Bool("stats") {
		return rt.DumpStats(stderr(m))
	}
	return nil
}

// probe loads every row's image concurrently and records what came back.
// Rows sharing a key share one fetch.
func probe(ctx context.Context, cache *asset.Cache, rows []eventRow) {
	var wg sync.WaitGroup
	for i := range rows {
		row := &rows[i]
		if row.Image == "" {
			row.Status = "none"
			continue
		}

		p, err := cache.Load(row.Image)
		if err != nil {
			row.Status = err.Error()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := p.Wait(ctx)
			if err != nil {
				row.Status = err.Error()
				return
			}
			row.Size = output.Bytes(len(data))
			if info, err := asset.Describe(data); err == nil {
				row.Dims = info.String()
				row.Status = "ok"
			} else {
				row.Status = "undecodable"
			}
		}()
	}
	wg.Wait()
}

// PageParamsFromCommand builds the event list request from the event flags.
func PageParamsFromCommand(cmd *cli.Command) event.PageParams {
	p := event.DefaultPageParams()
	p.RowsPerPage = cmd.Int("rows")
	p.Page = cmd.Int("page")
	p.Latitude = cmd.Float("latitude")
	p.Longitude = cmd.Float("longitude")
	p.Search = cmd.String("search")
	if cmd.IsSet("category") {
		id := cmd.Int("category")
		p.CategoryID = &id
	}
	return p
}

// ListCommandBuilder constructs the cli.Command definition for the "list"
// command, wiring flags, metadata, and the action/validator handlers.
func ListCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewEventFlags("list"), NewCacheFlags("list")...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "probe",
		Aliases:     []string{"p"},
		Usage:       "load every image and report its size and dimensions",
		HideDefault: true,
	})

	return (&QueryCommandBuilder{
		Name:      "list",
		Usage:     "list one page of local events",
		UsageText: `levctl list [options]`,
		Flags:     flags,
		Action:    ListCommandAction,
		Meta:      meta,
		Rows:      true,
	}).Build()
}
