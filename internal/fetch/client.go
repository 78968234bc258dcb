// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured. The
// transport default (no timeout at all) is never used.
const DefaultTimeout = 15 * time.Second

// UserAgent is sent with every request.
var UserAgent = "levctl"

// NewClient returns an http.Client whose Timeout is d, or DefaultTimeout when
// d <= 0.
func NewClient(d time.Duration) *http.Client {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &http.Client{Timeout: d}
}

// Do executes req and returns the full body of a 2xx response. Anything else
// is a *NetworkError.
func Do(client *http.Client, req *http.Request) ([]byte, error) {
	url := req.URL.String()
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return body, nil
}
