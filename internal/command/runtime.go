// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v3"

	"github.com/staranto/levctl/internal/asset"
	"github.com/staranto/levctl/internal/aws"
	"github.com/staranto/levctl/internal/event"
	"github.com/staranto/levctl/internal/fetch"
	"github.com/staranto/levctl/internal/listing"
	"github.com/staranto/levctl/internal/meta"
)

// runtime is the per-invocation wiring of the page source and the asset
// cache. Instances handed in through meta.Meta win over the ones built from
// flags.
type runtime struct {
	source   listing.PageSource
	cache    *asset.Cache
	registry *prometheus.Registry
	metrics  *asset.Metrics
	owned    bool
}

func newRuntime(cmd *cli.Command, m meta.Meta) (*runtime, error) {
	client := fetch.NewClient(cmd.Duration("timeout"))

	rt := &runtime{source: m.Source, cache: m.Cache}
	if rt.source == nil {
		rt.source = event.NewFetcher(cmd.String("endpoint"), client)
	}
	if rt.cache != nil {
		return rt, nil
	}

	maxBytes, err := humanize.ParseBytes(cmd.String("max-bytes"))
	if err != nil {
		return nil, fmt.Errorf("invalid --max-bytes: %w", err)
	}

	rt.registry = prometheus.NewRegistry()
	rt.metrics = asset.NewMetrics(rt.registry)
	rt.cache = asset.New(newOrigin(cmd, client),
		asset.WithMaxEntries(cmd.Int("max-entries")),
		asset.WithMaxBytes(int64(maxBytes)),
		asset.WithFetchTimeout(cmd.Duration("timeout")),
		asset.WithMetrics(rt.metrics),
	)
	rt.owned = true

	return rt, nil
}

// newOrigin routes http(s) and s3 keys, then layers the image check and the
// optional memcached tier on top. With memcached the check runs on both sides
// of it, so neither tier ever holds undecodable bytes.
func newOrigin(cmd *cli.Command, client *http.Client) asset.Fetcher {
	web := asset.NewHTTPFetcher(client)
	s3 := &lazyS3{opts: []aws.Option{
		aws.WithProfile(cmd.String("s3-profile")),
		aws.WithRegion(cmd.String("s3-region")),
		aws.WithEndpoint(cmd.String("s3-endpoint")),
		aws.WithMaxAttempts(1),
	}}

	var origin asset.Fetcher = asset.NewRouter().
		Handle("http", web).
		Handle("https", web).
		Handle("s3", s3)

	validate := cmd.Bool("validate")
	if validate {
		origin = asset.ValidateImages(origin)
	}

	if servers := cmd.StringSlice("memcached"); len(servers) > 0 {
		log.Debugf("memcached tier: %v", servers)
		mc := asset.NewMemcacheClient(cmd.Duration("timeout"), servers...)
		origin = asset.WithMemcached(mc, origin, cmd.Duration("memcached-ttl"))
		if validate {
			origin = asset.ValidateImages(origin)
		}
	}

	return origin
}

// Close stops the cache if this runtime built it.
func (rt *runtime) Close() {
	if rt.owned {
		rt.cache.Close()
	}
}

// DumpStats writes the cache metrics in the Prometheus text format.
func (rt *runtime) DumpStats(w io.Writer) error {
	if rt.registry == nil {
		return nil
	}
	mfs, err := rt.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Fetches returns how many origin fetches the cache started, or -1 when the
// cache was not built here.
func (rt *runtime) Fetches() int {
	if rt.metrics == nil {
		return -1
	}
	var m dto.Metric
	if err := rt.metrics.Misses.Write(&m); err != nil {
		return -1
	}
	return int(m.GetCounter().GetValue())
}

// lazyS3 builds its S3 client on the first s3:// key, so runs that never see
// one never touch AWS config.
type lazyS3 struct {
	opts []aws.Option

	once    sync.Once
	fetcher *asset.S3Fetcher
	err     error
}

func (l *lazyS3) Fetch(ctx context.Context, key string) ([]byte, error) {
	l.once.Do(func() {
		client, err := aws.NewS3(ctx, l.opts...)
		if err != nil {
			l.err = fmt.Errorf("failed to configure s3: %w", err)
			return
		}
		l.fetcher = asset.NewS3Fetcher(client)
	})
	if l.err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: l.err}
	}
	return l.fetcher.Fetch(ctx, key)
}
