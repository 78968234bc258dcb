// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package listing turns a page of events into the rows a list screen shows
// and tracks whether that screen is loading, populated, empty or failed.
package listing
