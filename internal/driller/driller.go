// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Driller resolves a dotted path with optional [n] indexes against json.
// Single element arrays are drilled through, so "items.id" works on
// {"items":[{"id":1}]}. A path that does not resolve gives an empty Result.
func Driller(json, path string) gjson.Result {
	current := gjson.Parse(json)
	if path == "" {
		return unwrap(current)
	}

	for _, segment := range strings.Split(path, ".") {
		key, idx, indexed := splitIndex(segment)

		current = unwrap(current)
		if !current.IsObject() {
			return gjson.Result{}
		}

		current = current.Get(gjson.Escape(key))
		if !current.Exists() {
			return gjson.Result{}
		}

		if indexed {
			if !current.IsArray() {
				return gjson.Result{}
			}
			elems := current.Array()
			if idx < 0 || idx >= len(elems) {
				return gjson.Result{}
			}
			current = elems[idx]
		}
	}

	return unwrap(current)
}

// splitIndex splits "name[3]" into "name", 3, true.
func splitIndex(segment string) (string, int, bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}
	idx, err := strconv.Atoi(segment[open+1 : len(segment)-1])
	if err != nil {
		return segment, 0, false
	}
	return segment[:open], idx, true
}

func unwrap(r gjson.Result) gjson.Result {
	if r.IsArray() {
		if elems := r.Array(); len(elems) == 1 {
			return elems[0]
		}
	}
	return r
}
