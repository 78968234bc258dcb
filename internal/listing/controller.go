// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"context"
	"sync"

	"github.com/apex/log"

	"github.com/staranto/levctl/internal/event"
)

const (
	// EmptyMessage is shown when a page has no events.
	EmptyMessage = "No events found."

	// ErrorMessage is shown when the page could not be loaded.
	ErrorMessage = "Failed to load events. Please try again."

	// NoTitle stands in for an event without a title.
	NoTitle = "No title"
)

// State is where a list screen is in its load cycle.
type State int

const (
	Loading State = iota
	Loaded
	Empty
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Error:
		return "error"
	}
	return "unknown"
}

// Row is the view-model for one event.
type Row struct {
	Index    int    `json:"index" yaml:"index"`
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	ImageKey string `json:"image" yaml:"image"`
}

// Snapshot is the observable state of a Controller.
type Snapshot struct {
	State   State
	Rows    []Row
	Message string
	Err     error
}

// PageSource fetches one page of events. *event.Fetcher satisfies it.
type PageSource interface {
	FetchPage(ctx context.Context, p event.PageParams) ([]event.Record, error)
}

// Controller is safe for concurrent use.
type Controller struct {
	source   PageSource
	params   event.PageParams
	template KeyTemplate

	mu        sync.Mutex
	snap      Snapshot
	observers []func(Snapshot)
}

// Option configures a Controller.
type Option func(*Controller)

// WithParams sets the page request.
func WithParams(p event.PageParams) Option {
	return func(c *Controller) { c.params = p }
}

// WithKeyTemplate sets how image keys are built. An empty template gives
// rows without images.
func WithKeyTemplate(t KeyTemplate) Option {
	return func(c *Controller) { c.template = t }
}

// New returns a Controller in the Loading state.
func New(source PageSource, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		params:   event.DefaultPageParams(),
		template: DefaultKeyTemplate,
		snap:     Snapshot{State: Loading},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to receive every state transition. fn runs on the
// goroutine calling Load.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Load fetches the page once and settles into Loaded, Empty or Error. A failed
// load keeps the rows of the last successful one.
func (c *Controller) Load(ctx context.Context) error {
	c.transition(func(s *Snapshot) {
		s.State = Loading
		s.Message = ""
		s.Err = nil
	})

	records, err := c.source.FetchPage(ctx, c.params)
	if err != nil {
		log.WithError(err).Error("failed to load events")
		c.transition(func(s *Snapshot) {
			s.State = Error
			s.Message = ErrorMessage
			s.Err = err
		})
		return err
	}

	rows := c.BuildRows(records)
	c.transition(func(s *Snapshot) {
		s.Rows = rows
		s.Err = nil
		if len(rows) == 0 {
			s.State = Empty
			s.Message = EmptyMessage
		} else {
			s.State = Loaded
			s.Message = ""
		}
	})
	log.Debugf("loaded %d events", len(rows))
	return nil
}

// BuildRows maps records onto rows, in order.
func (c *Controller) BuildRows(records []event.Record) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		title := rec.Title
		if title == "" {
			title = NoTitle
		}
		key, _ := c.template.Key(rec, i)
		rows[i] = Row{Index: i, ID: rec.ID, Title: title, ImageKey: key}
	}
	return rows
}

func (c *Controller) transition(mutate func(*Snapshot)) {
	c.mu.Lock()
	mutate(&c.snap)
	snap := c.snapshotLocked()
	observers := append([]func(Snapshot){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.snap
	s.Rows = append([]Row(nil), c.snap.Rows...)
	return s
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.State
}

// Rows returns the rows of the last successful load.
func (c *Controller) Rows() []Row {
	return c.Snapshot().Rows
}
