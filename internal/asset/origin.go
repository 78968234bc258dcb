// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/staranto/levctl/internal/fetch"
)

// ErrUnsupportedScheme is wrapped by the NetworkError a Router returns for a
// key whose scheme has no route.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// HTTPFetcher GETs the key as a URL.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher using client, or a client with the
// default timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	return fetch.Do(f.client, req)
}

// Router dispatches on the key's URL scheme.
type Router struct {
	routes map[string]Fetcher
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Fetcher)}
}

// Handle routes keys with scheme to f. Schemes are case-insensitive.
func (r *Router) Handle(scheme string, f Fetcher) *Router {
	r.routes[strings.ToLower(scheme)] = f
	return r
}

// Schemes lists the routed schemes.
func (r *Router) Schemes() []string {
	schemes := make([]string, 0, len(r.routes))
	for s := range r.routes {
		schemes = append(schemes, s)
	}
	return schemes
}

func (r *Router) Fetch(ctx context.Context, key string) ([]byte, error) {
	u, err := url.Parse(key)
	if err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: fmt.Errorf("failed to parse key: %w", err)}
	}

	f, ok := r.routes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, &fetch.NetworkError{URL: key, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
	}
	return f.Fetch(ctx, key)
}
