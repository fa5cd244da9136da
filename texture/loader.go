// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
)

// State is the progress of an asynchronous texture load.
type State uint8

const (
	// Pending means pixels are not uploaded yet. A load whose decode
	// failed stays Pending.
	Pending State = iota
	// Ready means the texture holds the decoded image.
	Ready
	// Failed means the decoded image could not be uploaded. Upload
	// failures are setup failures and never recover.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type loaderOptions struct {
	maxSize int
	ctx     context.Context
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

// WithMaxSize downscales decoded images so neither side exceeds n pixels,
// keeping the aspect ratio. Zero disables scaling.
func WithMaxSize(n int) LoaderOption {
	return func(o *loaderOptions) {
		o.maxSize = n
	}
}

// WithContext bounds every decode by ctx.
func WithContext(ctx context.Context) LoaderOption {
	return func(o *loaderOptions) {
		o.ctx = ctx
	}
}

// Loader decodes images on background goroutines and uploads them on the
// render goroutine.
type Loader struct {
	gfx  gfx.Context
	dec  Decoder
	opts loaderOptions
}

// NewLoader creates a loader uploading into ctx.
func NewLoader(ctx gfx.Context, dec Decoder, opts ...LoaderOption) *Loader {
	o := loaderOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader{gfx: ctx, dec: dec, opts: o}
}

// Load starts decoding url and returns immediately. The returned Future
// owns a texture that is not ready until the Future is polled after the
// decode has completed.
func (l *Loader) Load(url string) *Future {
	f := &Future{
		url:  url,
		tex:  &Texture{ctx: l.gfx, label: url},
		done: make(chan struct{}),
	}
	go f.decode(l.opts, l.dec)
	return f
}

// Future is an in-flight texture load.
type Future struct {
	url  string
	tex  *Texture
	done chan struct{}

	// Written by the decode goroutine before done is closed.
	img *image.RGBA
	err error

	once      sync.Once
	uploadErr error
	warned    atomic.Bool
}

func (f *Future) decode(opts loaderOptions, dec Decoder) {
	defer close(f.done)
	src, err := dec.Decode(opts.ctx, f.url)
	if err != nil {
		f.err = err
		return
	}
	f.img = fit(src, opts.maxSize)
}

// fit converts src to RGBA, downscaling it to fit within maxSize.
func fit(src image.Image, maxSize int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return clone.AsRGBA(src)
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	return transform.Resize(src, w, h, transform.Linear)
}

// URL returns the image location.
func (f *Future) URL() string { return f.url }

// Texture returns the texture being loaded. It is not ready before Poll
// reports Ready.
func (f *Future) Texture() *Texture { return f.tex }

// Done is closed when decoding has finished, successfully or not.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the decode or upload error, if any.
func (f *Future) Err() error {
	select {
	case <-f.done:
	default:
		return nil
	}
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.err
}

// Poll uploads the decoded image the first time it is called after
// decoding completed. It must be called on the render goroutine. Later
// calls only report the state.
func (f *Future) Poll() (State, *Texture) {
	select {
	case <-f.done:
	default:
		return Pending, f.tex
	}
	if f.err != nil {
		if f.warned.CompareAndSwap(false, true) {
			rendergraph.Logger().Warn("texture: decode failed, texture stays pending", "url", f.url, "err", f.err)
		}
		return Pending, f.tex
	}
	f.once.Do(func() {
		f.uploadErr = f.tex.Upload(f.img)
		f.img = nil
		if f.uploadErr != nil {
			rendergraph.Logger().Error("texture: upload failed", "url", f.url, "err", f.uploadErr)
		}
	})
	if f.uploadErr != nil {
		return Failed, f.tex
	}
	return Ready, f.tex
}

// Wait blocks until decoding has finished or ctx ends, then polls.
func (f *Future) Wait(ctx context.Context) (State, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
	state, _ := f.Poll()
	return state, f.Err()
}
