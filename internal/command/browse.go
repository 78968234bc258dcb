// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"

	"github.com/apex/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/levctl/internal/binding"
	"github.com/staranto/levctl/internal/listing"
	"github.com/staranto/levctl/internal/meta"
	"github.com/staranto/levctl/internal/tui"
)

// ErrNotTerminal is returned by browse when stdout is not a terminal.
var ErrNotTerminal = errors.New("browse needs a terminal, use list instead")

// BrowseCommandAction runs the interactive event browser.
func BrowseCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "browse") {
		return nil
	}

	out, ok := stdout(m).(*os.File)
	if !ok || !term.IsTerminal(int(out.Fd())) {
		return ErrNotTerminal
	}
	height := 24
	if _, h, err := term.GetSize(int(out.Fd())); err == nil {
		height = h
	}

	rt, err := newRuntime(cmd, m)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl := listing.New(rt.source,
		listing.WithParams(PageParamsFromCommand(cmd)),
		listing.WithKeyTemplate(listing.KeyTemplate(cmd.String("image-template"))),
	)
	load := func(ctx context.Context) listing.Snapshot {
		_ = ctrl.Load(ctx)
		return ctrl.Snapshot()
	}

	// Deliveries can arrive on the Update goroutine (cache hits), where a
	// blocking Send would deadlock, so they are always sent from their own.
	var p *tea.Program
	client := binding.New(rt.cache, func(d binding.Delivery) {
		go p.Send(tui.AssetMsg(d))
	})

	model := tui.New(ctx, load, client, tui.SlotsFor(height))
	p = tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	if cmd.Bool("stats") {
		return rt.DumpStats(stderr(m))
	}
	return nil
}

// BrowseCommandBuilder constructs the cli.Command definition for the "browse"
// command.
func BrowseCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "browse",
		Usage:     "browse local events interactively",
		UsageText: `levctl browse [options]`,
		Flags:     append(NewEventFlags("browse"), NewCacheFlags("browse")...),
		Action:    BrowseCommandAction,
		Meta:      meta,
	}).Build()
}
