// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

/*
Package asset implements the in-memory image cache.

A Cache maps a key (an image URL) to bytes. Concurrent loads of a key that is
not yet committed share one fetch: the first caller creates the in-flight
entry and starts the fetch, later callers attach to it, and every waiter gets
the same bytes or the same error. Failures are never committed, so the next
load of that key goes back to the origin.

The committed store and the in-flight table are guarded by a single mutex.
Eviction, when bounded, only ever touches committed entries.

Origins implement Fetcher. HTTPFetcher, S3Fetcher and Router cover the URL
schemes; ImageValidator and Memcached wrap another Fetcher.
*/
package asset
