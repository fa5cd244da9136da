// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texture wraps context textures with a readiness flag and loads
// images asynchronously.
//
// A Texture is ready once it holds pixels that may be sampled. Readiness
// transitions from false to true at most once and never back. Textures
// created from known pixels or as render attachments are ready
// immediately; textures filled from a decoded image become ready on the
// render goroutine when the owning Future is polled after decoding has
// finished.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
)

// Texture is a context texture with a readiness flag.
type Texture struct {
	ctx    gfx.Context
	label  string
	handle gfx.Texture
	ready  atomic.Bool
}

// NewEmpty allocates a w x h color texture that is not ready until
// Upload is called.
func NewEmpty(ctx gfx.Context, label string, w, h int) (*Texture, error) {
	handle, err := ctx.NewTexture(gfx.TextureDescriptor{
		Label:  label,
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	return &Texture{ctx: ctx, label: label, handle: handle}, nil
}

// NewSolid creates a ready w x h texture filled with c.
func NewSolid(ctx gfx.Context, label string, w, h int, c color.RGBA) (*Texture, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return FromImage(ctx, label, img)
}

// FromImage creates a ready texture holding img.
func FromImage(ctx gfx.Context, label string, img *image.RGBA) (*Texture, error) {
	b := img.Bounds()
	t, err := NewEmpty(ctx, label, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if err := t.Upload(img); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// NewAttachment creates a ready texture a render pass draws into. Its
// contents are defined by the pass, never uploaded.
func NewAttachment(ctx gfx.Context, label string, w, h int, format gputypes.TextureFormat) (*Texture, error) {
	handle, err := ctx.NewTexture(gfx.TextureDescriptor{
		Label:  label,
		Width:  w,
		Height: h,
		Format: format,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	t := &Texture{ctx: ctx, label: label, handle: handle}
	t.ready.Store(true)
	return t, nil
}

// Upload replaces the pixels and marks the texture ready. The storage is
// reallocated when img has a different size. It must be called on the
// render goroutine.
func (t *Texture) Upload(img *image.RGBA) error {
	b := img.Bounds()
	if t.handle == nil || t.handle.Width() != b.Dx() || t.handle.Height() != b.Dy() {
		handle, err := t.ctx.NewTexture(gfx.TextureDescriptor{
			Label:  t.label,
			Width:  b.Dx(),
			Height: b.Dy(),
			Format: gputypes.TextureFormatRGBA8Unorm,
		})
		if err != nil {
			return fmt.Errorf("texture %q: %w", t.label, err)
		}
		if t.handle != nil {
			t.handle.Destroy()
		}
		t.handle = handle
	}
	if err := t.ctx.UploadTexture(t.handle, img); err != nil {
		return fmt.Errorf("texture %q: %w", t.label, err)
	}
	if t.ready.CompareAndSwap(false, true) {
		rendergraph.Logger().Debug("texture: ready", "label", t.label, "width", b.Dx(), "height", b.Dy())
	}
	return nil
}

// Label returns the texture label.
func (t *Texture) Label() string { return t.label }

// Ready reports whether the texture may be sampled.
func (t *Texture) Ready() bool { return t.ready.Load() }

// Handle returns the context texture. It is nil for textures awaiting
// their first upload from a Future and after Destroy.
func (t *Texture) Handle() gfx.Texture { return t.handle }

// Size returns the texture size, zero before the first upload of a
// loaded texture.
func (t *Texture) Size() (int, int) {
	if t.handle == nil {
		return 0, 0
	}
	return t.handle.Width(), t.handle.Height()
}

// Destroy releases the context texture. A destroyed texture is no
// longer Ready.
func (t *Texture) Destroy() {
	t.ready.Store(false)
	if t.handle != nil {
		t.handle.Destroy()
		t.handle = nil
	}
}
