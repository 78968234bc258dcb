// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"sync"
)

// Pending is the eventual result of a Load.
type Pending struct {
	once sync.Once
	done chan struct{}
	data []byte
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(data []byte, err error) {
	p.once.Do(func() {
		p.data, p.err = data, err
		close(p.done)
	})
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Ready reports whether the result is available without waiting.
func (p *Pending) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Result blocks until the result is available. The returned bytes are
// shared with the cache and other callers and must not be modified.
func (p *Pending) Result() ([]byte, error) {
	<-p.done
	return p.data, p.err
}

// Wait is Result bounded by ctx. Giving up does not cancel the underlying
// fetch, other waiters may still depend on it.
func (p *Pending) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-p.done:
		return p.data, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
