// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"io"

	"github.com/staranto/levctl/internal/asset"
	"github.com/staranto/levctl/internal/config"
	"github.com/staranto/levctl/internal/listing"
)

// Meta are the meta-options and shared instances that are available on all
// or most commands. Commands get the cache and the page source from here
// rather than from package globals.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context

	Cache  *asset.Cache
	Source listing.PageSource

	Stdout io.Writer
	Stderr io.Writer
}
