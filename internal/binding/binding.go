// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"sync"

	"github.com/apex/log"
)

// Loader is the callback half of an asset cache. *asset.Cache satisfies it.
type Loader interface {
	LoadFunc(key string, fn func([]byte, error)) error
}

// Delivery is a result that is still wanted by its row.
type Delivery struct {
	RowID int
	Key   string
	Data  []byte
	Err   error
}

type slot struct {
	key     string
	gen     uint64
	pending bool
}

// Client is safe for concurrent use.
type Client struct {
	loader  Loader
	deliver func(Delivery)

	mu    sync.Mutex
	gen   uint64
	slots map[int]*slot
}

// New returns a Client that loads through loader and hands surviving results
// to deliver. deliver runs on the caller's goroutine for cache hits and on the
// cache's fetch goroutine otherwise.
func New(loader Loader, deliver func(Delivery)) *Client {
	return &Client{
		loader:  loader,
		deliver: deliver,
		slots:   make(map[int]*slot),
	}
}

// Request makes key the desired asset for rowID and starts loading it. A
// request for the key the row is already waiting on is a no-op. An invalid
// key clears the binding and is returned.
func (c *Client) Request(rowID int, key string) error {
	c.mu.Lock()
	s, ok := c.slots[rowID]
	if ok && s.pending && s.key == key {
		c.mu.Unlock()
		return nil
	}
	if !ok {
		s = &slot{}
		c.slots[rowID] = s
	}
	c.gen++
	gen := c.gen
	s.key, s.gen, s.pending = key, gen, true
	c.mu.Unlock()

	err := c.loader.LoadFunc(key, func(data []byte, err error) {
		c.complete(rowID, key, gen, data, err)
	})
	if err != nil {
		c.mu.Lock()
		if s, ok := c.slots[rowID]; ok && s.gen == gen {
			delete(c.slots, rowID)
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) complete(rowID int, key string, gen uint64, data []byte, err error) {
	c.mu.Lock()
	s, ok := c.slots[rowID]
	current := ok && s.gen == gen
	if current {
		s.pending = false
	}
	c.mu.Unlock()

	if !current {
		log.WithField("row", rowID).WithField("key", key).Debug("discarding stale asset")
		return
	}
	c.deliver(Delivery{RowID: rowID, Key: key, Data: data, Err: err})
}

// Cancel forgets what rowID wants. A fetch already started keeps running for
// anyone else waiting on it; its result is just not delivered here.
func (c *Client) Cancel(rowID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, rowID)
}

// Current returns the key rowID is bound to.
func (c *Client) Current(rowID int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[rowID]
	if !ok {
		return "", false
	}
	return s.key, true
}
