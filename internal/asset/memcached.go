// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/bradfitz/gomemcache/memcache"
)

const (
	// memcachedKeyPrefix is bumped if the stored format changes.
	memcachedKeyPrefix = "levctl|asset|v1|"

	// memcachedMaxItem is memcached's default item size limit.
	memcachedMaxItem = 1024 * 1024

	// MaxMemcachedTTL is the longest relative expiration memcached accepts.
	// Larger values are read as absolute unix times.
	MaxMemcachedTTL = 30 * 24 * time.Hour
)

// ItemStore is the subset of *memcache.Client used by Memcached.
type ItemStore interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// Memcached puts a shared memcached tier in front of another Fetcher. It is
// purely an optimisation: memcached errors fall through to next and failed
// writes are only logged.
type Memcached struct {
	store ItemStore
	next  Fetcher
	ttl   time.Duration
}

// NewMemcacheClient connects to the given servers.
func NewMemcacheClient(timeout time.Duration, servers ...string) *memcache.Client {
	c := memcache.New(servers...)
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}

// WithMemcached wraps next. ttl <= 0 stores without expiry and ttl is capped
// at MaxMemcachedTTL.
func WithMemcached(store ItemStore, next Fetcher, ttl time.Duration) *Memcached {
	if ttl > MaxMemcachedTTL {
		ttl = MaxMemcachedTTL
	}
	return &Memcached{store: store, next: next, ttl: ttl}
}

func (m *Memcached) Fetch(ctx context.Context, key string) ([]byte, error) {
	mk := memcachedKey(key)

	item, err := m.store.Get(mk)
	switch {
	case err == nil:
		log.WithField("key", key).Debug("memcached hit")
		return item.Value, nil
	case errors.Is(err, memcache.ErrCacheMiss):
		// Don't log on cache miss
	default:
		log.WithError(err).Warn("memcached get failed")
	}

	data, err := m.next.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(data) > memcachedMaxItem {
		return data, nil
	}

	if err := m.store.Set(&memcache.Item{
		Key:        mk,
		Value:      data,
		Expiration: expiration(m.ttl),
	}); err != nil {
		log.WithError(err).Warn("memcached set failed")
	}

	return data, nil
}

// expiration converts ttl to whole seconds, rounding up so a sub-second ttl
// does not mean "never expire".
func expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	return int32((ttl + time.Second - 1) / time.Second)
}

// memcachedKey maps an arbitrary URL onto a key that fits memcached's
// 250-byte, no-whitespace rule.
func memcachedKey(key string) string {
	h := md5.New()
	_, _ = h.Write([]byte(key))
	return memcachedKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
