// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/staranto/levctl/internal/fetch"
)

// Sentinel causes carried inside a *fetch.DecodeError.
var (
	ErrInvalidJSON = errors.New("response is not valid JSON")
	ErrShape       = errors.New("response does not match the event list schema")
)

// Decode flattens {resultset: [{eventitem: [...]}, ...]} into records,
// concatenating every eventitem array in source order. url is only used to
// label errors. An empty resultset is an empty, non-nil slice.
func Decode(url string, body []byte) ([]Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, &fetch.DecodeError{URL: url, Err: ErrInvalidJSON}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, shapeError(url, "top level is not an object")
	}

	resultset := root.Get("resultset")
	if !resultset.IsArray() {
		return nil, shapeError(url, "resultset is missing or not an array")
	}

	records := []Record{}
	for i, set := range resultset.Array() {
		items := set.Get("eventitem")
		if !set.IsObject() || !items.IsArray() {
			return nil, shapeError(url, fmt.Sprintf("resultset[%d].eventitem is missing or not an array", i))
		}

		for j, item := range items.Array() {
			if !item.IsObject() {
				return nil, shapeError(url, fmt.Sprintf("resultset[%d].eventitem[%d] is not an object", i, j))
			}

			var rec Record
			var err error
			if rec.ID, err = optionalString(item, "eventitemid"); err != nil {
				return nil, shapeError(url, fmt.Sprintf("resultset[%d].eventitem[%d]: %v", i, j, err))
			}
			if rec.Title, err = optionalString(item, "title"); err != nil {
				return nil, shapeError(url, fmt.Sprintf("resultset[%d].eventitem[%d]: %v", i, j, err))
			}
			if rec.ImageType, err = optionalString(item, "imagetype"); err != nil {
				return nil, shapeError(url, fmt.Sprintf("resultset[%d].eventitem[%d]: %v", i, j, err))
			}
			records = append(records, rec)
		}
	}

	return records, nil
}

// optionalString returns the string at key. Missing and null are "", any
// other JSON type is an error.
func optionalString(item gjson.Result, key string) (string, error) {
	v := item.Get(key)
	switch v.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return v.Str, nil
	default:
		return "", fmt.Errorf("%s is %s, want string", key, v.Type)
	}
}

func shapeError(url, detail string) error {
	return &fetch.DecodeError{URL: url, Err: fmt.Errorf("%w: %s", ErrShape, detail)}
}
