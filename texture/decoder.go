// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"net/http"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP
)

// Decoder fetches and decodes the image at url. Implementations are
// called from loader goroutines and must not touch a graphics context.
type Decoder interface {
	Decode(ctx context.Context, url string) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, url string) (image.Image, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// HTTPDecoder downloads images over HTTP(S).
type HTTPDecoder struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Decode GETs url and decodes the body.
func (d HTTPDecoder) Decode(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("texture: GET %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", url, err)
	}
	return img, nil
}

// FileDecoder reads images from the local file system.
type FileDecoder struct {
	// Root is prepended to relative paths.
	Root string
}

// Decode opens and decodes the file at path.
func (d FileDecoder) Decode(_ context.Context, path string) (image.Image, error) {
	if d.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(d.Root, path)
	}
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	return img, nil
}
