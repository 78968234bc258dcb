// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package driller extracts values from event rows and raw event payloads by
// dotted path, for attribute selection, filtering and sorting.
package driller
