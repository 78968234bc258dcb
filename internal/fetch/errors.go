// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"errors"
	"fmt"
)

// ErrFetch matches every NetworkError and DecodeError via errors.Is, so
// callers that only care that "a fetch failed" need not know which kind.
var ErrFetch = errors.New("fetch failed")

// NetworkError is a transport-level failure: the request could not be made,
// the connection failed, the body could not be read, or the server answered
// with a non-2xx status.
type NetworkError struct {
	URL string
	// StatusCode is the HTTP status for non-2xx answers and 0 otherwise.
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrFetch }

// DecodeError means the server answered but the bytes do not match what was
// expected (JSON schema mismatch, undecodable image).
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrFetch }

// IsNetwork reports whether err is or wraps a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsDecode reports whether err is or wraps a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
