// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "levctl"
	metricsSubsystem = "asset_cache"
)

// Metrics counts cache activity. A nil *Metrics records nothing.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Coalesced     prometheus.Counter
	FetchErrors   prometheus.Counter
	Evictions     prometheus.Counter
	FetchDuration prometheus.Histogram
}

// NewMetrics builds the cache collectors and registers them with reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		Hits:        counter("hits_total", "Loads served from committed entries."),
		Misses:      counter("misses_total", "Loads that started an origin fetch."),
		Coalesced:   counter("coalesced_total", "Loads that joined a fetch already in flight."),
		FetchErrors: counter("fetch_errors_total", "Origin fetches that failed."),
		Evictions:   counter("evictions_total", "Committed entries evicted to stay within bounds."),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of origin fetches, in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Coalesced, m.FetchErrors, m.Evictions, m.FetchDuration)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) coalesce() {
	if m != nil {
		m.Coalesced.Inc()
	}
}

func (m *Metrics) evict(n int) {
	if m != nil && n > 0 {
		m.Evictions.Add(float64(n))
	}
}

func (m *Metrics) observe(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.Inc()
	}
}
