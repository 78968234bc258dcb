// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/staranto/levctl/internal/fetch"
)

// ImageInfo describes decoded image bytes.
type ImageInfo struct {
	Width  int
	Height int
	Bytes  int
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Describe decodes data as an image.
func Describe(data []byte) (ImageInfo, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return ImageInfo{}, err
	}
	b := img.Bounds()
	return ImageInfo{Width: b.Dx(), Height: b.Dy(), Bytes: len(data)}, nil
}

// ImageValidator rejects bytes that do not decode as an image. Because the
// rejection is a fetch error, undecodable payloads are never committed.
type ImageValidator struct {
	next Fetcher
}

// ValidateImages wraps next with an ImageValidator.
func ValidateImages(next Fetcher) *ImageValidator {
	return &ImageValidator{next: next}
}

func (v *ImageValidator) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := v.next.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, err := Describe(data); err != nil {
		return nil, &fetch.DecodeError{URL: key, Err: fmt.Errorf("not an image: %w", err)}
	}
	return data, nil
}
