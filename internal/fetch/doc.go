// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fetch holds the transport pieces shared by the event and asset
// layers: the HTTP client with an explicit timeout and the fetch error types.
package fetch
