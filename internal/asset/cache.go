// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/staranto/levctl/internal/fetch"
)

// ErrInvalidKey matches every *InvalidKeyError.
var ErrInvalidKey = errors.New("invalid cache key")

// ErrClosed is returned by loads issued after Close.
var ErrClosed = errors.New("asset cache is closed")

// InvalidKeyError is returned synchronously for keys that can never be
// fetched. Nothing is registered for them.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid cache key %q", e.Key)
}

func (e *InvalidKeyError) Is(target error) bool { return target == ErrInvalidKey }

// Fetcher retrieves the bytes for a key from wherever they live.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) ([]byte, error) {
	return f(ctx, key)
}

// call is one in-flight fetch and everyone waiting on it.
type call struct {
	waiters []func([]byte, error)
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache struct {
	origin  Fetcher
	timeout time.Duration
	metrics *Metrics

	// mu guards store, inflight and closed together. A miss must observe
	// and create the in-flight entry in one critical section.
	mu       sync.Mutex
	store    *store
	inflight map[string]*call
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries bounds the number of committed entries. 0 is unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.store.maxEntries = n }
}

// WithMaxBytes bounds the total size of committed entries. 0 is unbounded.
// A single value larger than n is handed to its waiters but not committed.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) { c.store.maxBytes = n }
}

// WithFetchTimeout bounds each origin fetch. d <= 0 keeps
// fetch.DefaultTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records cache activity into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns a Cache that fetches misses from origin.
func New(origin Fetcher, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		origin:   origin,
		timeout:  fetch.DefaultTimeout,
		store:    newStore(),
		inflight: make(map[string]*call),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns a Pending for key. A committed key yields an already resolved
// Pending without starting anything. Otherwise the caller joins the fetch in
// flight for key, or starts it. Load never blocks on the network.
func (c *Cache) Load(key string) (*Pending, error) {
	p := newPending()
	if err := c.LoadFunc(key, p.resolve); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFunc is the callback form of Load. fn is called exactly once: before
// LoadFunc returns for a committed key, otherwise from the fetch goroutine
// after the fetch completes. Waiters on one key are called in the order they
// were registered, so fn should not block.
func (c *Cache) LoadFunc(key string, fn func([]byte, error)) error {
	if key == "" {
		return &InvalidKeyError{Key: key}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if data, ok := c.store.get(key); ok {
		c.mu.Unlock()
		c.metrics.hit()
		fn(data, nil)
		return nil
	}

	if cl, ok := c.inflight[key]; ok {
		cl.waiters = append(cl.waiters, fn)
		c.mu.Unlock()
		c.metrics.coalesce()
		log.WithField("key", key).Debug("joined in-flight fetch")
		return nil
	}

	cl := &call{waiters: []func([]byte, error){fn}}
	c.inflight[key] = cl
	c.wg.Add(1)
	c.mu.Unlock()

	c.metrics.miss()
	go c.run(key, cl)
	return nil
}

// run performs the fetch for cl and resolves its waiters.
func (c *Cache) run(key string, cl *call) {
	defer c.wg.Done()

	start := time.Now()
	data, err := c.fetch(key)
	c.metrics.observe(time.Since(start), err)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		committed, evicted := c.store.add(key, data)
		c.metrics.evict(evicted)
		if !committed {
			log.WithField("key", key).Debugf("%d bytes exceeds cache bound, not committed", len(data))
		}
	}
	waiters := cl.waiters
	cl.waiters = nil
	c.mu.Unlock()

	if err != nil {
		log.WithError(err).WithField("key", key).Debug("fetch failed")
	}

	for _, w := range waiters {
		notify(key, w, data, err)
	}
}

// notify calls one waiter. A panicking waiter is logged so the rest still
// get their result.
func notify(key string, w func([]byte, error), data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("key", key).Errorf("waiter panicked: %v", r)
		}
	}()
	w(data, err)
}

// fetch calls the origin with the cache's own deadline. Errors that are not
// already part of the fetch taxonomy become NetworkErrors, and a panicking
// origin is reported the same way.
func (c *Cache) fetch(key string) (data []byte, err error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &fetch.NetworkError{URL: key, Err: fmt.Errorf("origin panicked: %v", r)}
		}
	}()

	data, err = c.origin.Fetch(ctx, key)
	if err != nil {
		if !errors.Is(err, fetch.ErrFetch) {
			err = &fetch.NetworkError{URL: key, Err: err}
		}
		return nil, err
	}
	return data, nil
}

// Get returns the committed bytes for key without fetching.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.get(key)
}

// Len is the number of committed entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.len()
}

// Size is the total number of committed bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.size
}

// InFlight is the number of fetches currently outstanding.
func (c *Cache) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Purge drops every committed entry. In-flight fetches are unaffected and
// will commit when they complete.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.purge()
}

// Close cancels outstanding fetches, waits for their waiters to be resolved
// and rejects further loads.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
