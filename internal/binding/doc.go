// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package binding ties reusable display rows to the asset each one currently
// wants, so a result that arrives after the row has moved on is dropped
// instead of being shown against the wrong item.
package binding
