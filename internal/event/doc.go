// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package event fetches one page of local events and flattens the response
// envelope into a list of records.
package event
