// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// no-cloc

package asset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/levctl/internal/fetch"
)

// gatedOrigin blocks every fetch until its gate for the key is released.
type gatedOrigin struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls map[string]int
	data  map[string][]byte
	errs  map[string]error
}

func newGatedOrigin() *gatedOrigin {
	return &gatedOrigin{
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
		data:  make(map[string][]byte),
		errs:  make(map[string]error),
	}
}

func (o *gatedOrigin) gate(key string) chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.gates[key]
	if !ok {
		g = make(chan struct{})
		o.gates[key] = g
	}
	return g
}

func (o *gatedOrigin) release(key string) {
	close(o.gate(key))
}

func (o *gatedOrigin) reset(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gates[key] = make(chan struct{})
}

func (o *gatedOrigin) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[key]
}

func (o *gatedOrigin) Fetch(ctx context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	o.calls[key]++
	o.mu.Unlock()

	select {
	case <-o.gate(key):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.errs[key]; err != nil {
		return nil, err
	}
	return o.data[key], nil
}

func TestLoad_Coalesces(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["k"] = []byte("x")
	c := New(origin)
	defer c.Close()

	const n = 50
	pendings := make([]*Pending, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Load("k")
			assert.NoError(t, err)
			pendings[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, c.InFlight())
	origin.release("k")

	for _, p := range pendings {
		data, err := p.Result()
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), data)
	}
	assert.Equal(t, 1, origin.count("k"))
	assert.Equal(t, 0, c.InFlight())
	assert.Equal(t, 1, c.Len())
}

func TestLoadFunc_HitIsSynchronous(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["k"] = []byte("x")
	c := New(origin)
	defer c.Close()

	p, err := c.Load("k")
	require.NoError(t, err)
	origin.release("k")
	_, err = p.Result()
	require.NoError(t, err)

	called := false
	require.NoError(t, c.LoadFunc("k", func(data []byte, err error) {
		called = true
		assert.NoError(t, err)
		assert.Equal(t, []byte("x"), data)
	}))
	assert.True(t, called, "callback should run before LoadFunc returns")

	p, err = c.Load("k")
	require.NoError(t, err)
	assert.True(t, p.Ready())
	assert.Equal(t, 1, origin.count("k"))
}

func TestLoad_WaitersResolveInOrder(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["k"] = []byte("x")
	c := New(origin)
	defer c.Close()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, c.LoadFunc("k", func([]byte, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	origin.release("k")
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestLoad_FailureIsNotCached(t *testing.T) {
	origin := newGatedOrigin()
	origin.errs["k"] = &fetch.NetworkError{URL: "k", StatusCode: 500}
	c := New(origin)
	defer c.Close()

	p1, err := c.Load("k")
	require.NoError(t, err)
	p2, err := c.Load("k")
	require.NoError(t, err)
	origin.release("k")

	_, err1 := p1.Result()
	_, err2 := p2.Result()
	assert.True(t, fetch.IsNetwork(err1))
	assert.Same(t, err1, err2)
	assert.Equal(t, 0, c.Len())

	// The next load retries.
	origin.mu.Lock()
	delete(origin.errs, "k")
	origin.data["k"] = []byte("ok")
	origin.mu.Unlock()

	p3, err := c.Load("k")
	require.NoError(t, err)
	data, err := p3.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, 2, origin.count("k"))
}

func TestLoad_DistinctKeysAreIndependent(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["a"] = []byte("A")
	origin.data["b"] = []byte("B")
	c := New(origin)
	defer c.Close()

	pa, err := c.Load("a")
	require.NoError(t, err)
	pb, err := c.Load("b")
	require.NoError(t, err)
	assert.Equal(t, 2, c.InFlight())

	origin.release("b")
	data, err := pb.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("B"), data)
	assert.False(t, pa.Ready())

	origin.release("a")
	data, err = pa.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), data)
}

func TestLoad_InvalidKey(t *testing.T) {
	c := New(newGatedOrigin())
	defer c.Close()

	p, err := c.Load("")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalidKey)

	var ike *InvalidKeyError
	assert.ErrorAs(t, err, &ike)
	assert.Equal(t, 0, c.InFlight())
}

func TestLoad_NormalizesOriginErrors(t *testing.T) {
	tests := []struct {
		name   string
		origin FetcherFunc
		decode bool
	}{
		{
			name: "plain error",
			origin: func(context.Context, string) ([]byte, error) {
				return nil, errors.New("boom")
			},
		},
		{
			name: "panic",
			origin: func(context.Context, string) ([]byte, error) {
				panic("kaboom")
			},
		},
		{
			name: "decode error kept",
			origin: func(_ context.Context, key string) ([]byte, error) {
				return nil, &fetch.DecodeError{URL: key, Err: errors.New("bad")}
			},
			decode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.origin)
			defer c.Close()

			p, err := c.Load("k")
			require.NoError(t, err)
			_, err = p.Result()
			require.Error(t, err)
			assert.ErrorIs(t, err, fetch.ErrFetch)
			assert.Equal(t, tt.decode, fetch.IsDecode(err))
			assert.Equal(t, !tt.decode, fetch.IsNetwork(err))
		})
	}
}

func TestLoad_FetchTimeout(t *testing.T) {
	c := New(newGatedOrigin(), WithFetchTimeout(20*time.Millisecond))
	defer c.Close()

	p, err := c.Load("never")
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not time out")
	}
	_, err = p.Result()
	assert.True(t, fetch.IsNetwork(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPending_WaitDoesNotCancelFetch(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["k"] = []byte("x")
	c := New(origin)
	defer c.Close()

	p1, err := c.Load("k")
	require.NoError(t, err)
	p2, err := c.Load("k")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p1.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	origin.release("k")
	data, err := p2.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	// p1 still resolves with the shared result.
	data, err = p1.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestCache_Bounds(t *testing.T) {
	data := map[string][]byte{
		"a":   []byte("aaaa"),
		"b":   []byte("bbbb"),
		"c":   []byte("cccc"),
		"big": []byte("0123456789"),
	}
	origin := FetcherFunc(func(_ context.Context, key string) ([]byte, error) {
		return data[key], nil
	})

	load := func(t *testing.T, c *Cache, key string) []byte {
		p, err := c.Load(key)
		require.NoError(t, err)
		b, err := p.Result()
		require.NoError(t, err)
		return b
	}

	t.Run("entries", func(t *testing.T) {
		c := New(origin, WithMaxEntries(2))
		defer c.Close()

		load(t, c, "a")
		load(t, c, "b")
		_, _ = c.Get("a") // a is now most recent
		load(t, c, "c")

		assert.Equal(t, 2, c.Len())
		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)
	})

	t.Run("bytes", func(t *testing.T) {
		c := New(origin, WithMaxBytes(8))
		defer c.Close()

		load(t, c, "a")
		load(t, c, "b")
		load(t, c, "c")
		assert.Equal(t, int64(8), c.Size())
		_, ok := c.Get("a")
		assert.False(t, ok)
	})

	t.Run("oversized delivered not committed", func(t *testing.T) {
		c := New(origin, WithMaxBytes(8))
		defer c.Close()

		assert.Equal(t, data["big"], load(t, c, "big"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("purge", func(t *testing.T) {
		c := New(origin)
		defer c.Close()

		load(t, c, "a")
		load(t, c, "b")
		c.Purge()
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, int64(0), c.Size())
	})
}

func TestCache_Close(t *testing.T) {
	c := New(newGatedOrigin())

	p, err := c.Load("k")
	require.NoError(t, err)

	c.Close()
	require.True(t, p.Ready(), "Close should resolve outstanding waiters")
	_, err = p.Result()
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Load("k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCache_Metrics(t *testing.T) {
	var fetches atomic.Int32
	origin := FetcherFunc(func(_ context.Context, key string) ([]byte, error) {
		fetches.Add(1)
		if key == "bad" {
			return nil, errors.New("nope")
		}
		return []byte(key), nil
	})

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(origin, WithMetrics(m), WithMaxEntries(1))
	defer c.Close()

	for _, key := range []string{"a", "a", "b", "bad"} {
		p, err := c.Load(key)
		require.NoError(t, err)
		_, _ = p.Result()
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Hits))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Misses))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Evictions))
	assert.Equal(t, int32(3), fetches.Load())

	n, err := testutil.GatherAndCount(reg, "levctl_asset_cache_fetch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.hit()
		m.miss()
		m.coalesce()
		m.evict(3)
		m.observe(time.Second, errors.New("x"))
	})
}

func TestLoadFunc_PanickingWaiter(t *testing.T) {
	origin := newGatedOrigin()
	origin.data["k"] = []byte("x")
	c := New(origin)
	defer c.Close()

	var got []string
	var mu sync.Mutex
	record := func(name string) func([]byte, error) {
		return func(data []byte, err error) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+string(data))
		}
	}

	require.NoError(t, c.LoadFunc("k", record("first")))
	require.NoError(t, c.LoadFunc("k", func([]byte, error) { panic("waiter bug") }))
	require.NoError(t, c.LoadFunc("k", record("after")))
	// Waiters run in order, so once the last one has its result the others
	// have all been called.
	last, err := c.Load("k")
	require.NoError(t, err)

	origin.release("k")
	data, err := last.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first:x", "after:x"}, got)
	assert.Equal(t, 1, c.Len())
}
