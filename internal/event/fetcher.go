// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/apex/log"

	"github.com/staranto/levctl/internal/fetch"
)

// DefaultEndpoint is the public event list service.
const DefaultEndpoint = "https://dev.loqiva.com/public/service/phonejson/eventlist"

// Fetcher issues event list requests against a single endpoint.
type Fetcher struct {
	endpoint string
	client   *http.Client
}

// NewFetcher returns a Fetcher for endpoint. A nil client gets
// fetch.NewClient(0), i.e. the default timeout.
func NewFetcher(endpoint string, client *http.Client) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &Fetcher{endpoint: endpoint, client: client}
}

// Endpoint returns the URL requests are posted to.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// FetchPage posts p and decodes the response. It is one request with no
// retry. Failures are *fetch.NetworkError or *fetch.DecodeError.
func (f *Fetcher) FetchPage(ctx context.Context, p PageParams) ([]Record, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &fetch.NetworkError{URL: f.endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.WithField("endpoint", f.endpoint).Debugf("fetching page %d (%d rows)", p.Page, p.RowsPerPage)

	body, err := fetch.Do(f.client, req)
	if err != nil {
		return nil, err
	}

	records, err := Decode(f.endpoint, body)
	if err != nil {
		return nil, err
	}
	log.Debugf("decoded %d events", len(records))

	return records, nil
}
