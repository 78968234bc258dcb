// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// levctl is the main package for the levctl command line tool. It lists and
// browses local events, loading each event's image through an in-memory cache
// that never fetches the same image twice at once.
package main
