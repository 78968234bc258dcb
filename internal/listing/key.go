// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/staranto/levctl/internal/event"
)

// DefaultKeyTemplate locates an event's image by its identity.
const DefaultKeyTemplate = KeyTemplate("https://dev.loqiva.com/images/events/{id}_{imagetype}.jpg")

// KeyTemplate builds cache keys from events. It understands {id},
// {imagetype} and {index}. {index} is the row's position and only suits
// demo fixtures, since it changes when the list does.
type KeyTemplate string

// Key expands t for rec at position index. It reports false when a token t
// uses has no value, in which case the row has no image.
func (t KeyTemplate) Key(rec event.Record, index int) (string, bool) {
	s := string(t)
	if s == "" {
		return "", false
	}

	if strings.Contains(s, "{id}") {
		if rec.ID == "" {
			return "", false
		}
		s = strings.ReplaceAll(s, "{id}", url.PathEscape(rec.ID))
	}
	if strings.Contains(s, "{imagetype}") {
		if rec.ImageType == "" {
			return "", false
		}
		s = strings.ReplaceAll(s, "{imagetype}", url.PathEscape(rec.ImageType))
	}
	s = strings.ReplaceAll(s, "{index}", strconv.Itoa(index))

	return s, true
}
