// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package event

// Record is a single event as returned by the event list endpoint. Every
// field is optional upstream; an absent or null field is the empty string.
type Record struct {
	ID        string `json:"eventitemid" yaml:"eventitemid"`
	Title     string `json:"title" yaml:"title"`
	ImageType string `json:"imagetype" yaml:"imagetype"`
}

// PageParams is the body of the event list request.
type PageParams struct {
	RowsPerPage int     `json:"rowsPerPage"`
	Page        int     `json:"page"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	// CategoryID is sent as null when nil.
	CategoryID *int   `json:"categoryId"`
	Search     string `json:"search"`
}

// DefaultPageParams is the first page of 100 events, unfiltered.
func DefaultPageParams() PageParams {
	return PageParams{
		RowsPerPage: 100,
		Page:        1,
	}
}
