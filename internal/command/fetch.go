// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/asset"
	"github.com/staranto/levctl/internal/meta"
	"github.com/staranto/levctl/internal/output"
)

// ErrNoKeys is returned by fetch without any keys.
var ErrNoKeys = errors.New("at least one key is required")

// assetRow is one line of fetch output.
type assetRow struct {
	Key    string `json:"key"`
	Loads  int    `json:"loads"`
	Size   string `json:"size"`
	Dims   string `json:"dims"`
	Status string `json:"status"`
}

// FetchCommandAction loads every key --repeat times at once through one
// cache. However many loads there are, each key is fetched at most once.
func FetchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "fetch") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(assetRow{})) {
		return nil
	}

	keys := cmd.Args().Slice()
	if len(keys) == 0 {
		return ErrNoKeys
	}

	opts, err := output.OptionsFromCommand(cmd, BuildAttrs("key", "loads", "size", "dims", "status"))
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, m)
	if err != nil {
		return err
	}
	defer rt.Close()

	rows := loadAll(ctx, rt.cache, keys, cmd.Int("repeat"))

	if err := EmitRows(rows, opts, stdout(m)); err != nil {
		return err
	}

	loads := 0
	for _, r := range rows {
		loads += r.Loads
	}
	if n := rt.Fetches(); n >= 0 {
		fmt.Fprintf(stderr(m), "%d loads of %d keys, %d fetches\n", loads, len(rows), n)
	}

	if cmd.Bool("stats") {
		return rt.DumpStats(stderr(m))
	}
	return nil
}

// loadAll starts repeat loads of every key before waiting on any of them.
// Duplicate keys fold into one row.
func loadAll(ctx context.Context, cache *asset.Cache, keys []string, repeat int) []assetRow {
	if repeat < 1 {
		repeat = 1
	}

	var (
		rows  []assetRow
		index = make(map[string]int)
		wg    sync.WaitGroup
		mu    sync.Mutex
	)

	for _, key := range keys {
		if _, seen := index[key]; !seen {
			index[key] = len(rows)
			rows = append(rows, assetRow{Key: key})
		}
	}

	record := func(i int, data []byte, err error) {
		mu.Lock()
		defer mu.Unlock()
		row := &rows[i]
		if err != nil {
			row.Status = err.Error()
			return
		}
		row.Size = output.Bytes(len(data))
		if info, err := asset.Describe(data); err == nil {
			row.Dims = info.String()
		}
		if row.Status == "" {
			row.Status = "ok"
		}
	}

	for _, key := range keys {
		i := index[key]
		for n := 0; n < repeat; n++ {
			mu.Lock()
			rows[i].Loads++
			mu.Unlock()

			p, err := cache.Load(key)
			if err != nil {
				record(i, nil, err)
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				data, err := p.Wait(ctx)
				record(i, data, err)
			}()
		}
	}

	wg.Wait()
	return rows
}

// FetchCommandBuilder constructs the cli.Command definition for the "fetch"
// command.
func FetchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := append(NewCacheFlags("fetch"), &cli.IntFlag{
		Name:    "repeat",
		Aliases: []string{"r"},
		Usage:   "concurrent loads per key",
		Value:   1,
		Validator: func(value int) error {
			return FlagValidators(value, PositiveValidator)
		},
	})

	return (&QueryCommandBuilder{
		Name:      "fetch",
		Usage:     "load assets through the cache",
		UsageText: `levctl fetch [options] KEY...`,
		Flags:     flags,
		Action:    FetchCommandAction,
		Meta:      meta,
		Rows:      true,
	}).Build()
}
