// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx/soft"
	"github.com/gogpu/rendergraph/internal/gfxtest"
)

func TestNewSolidIsReady(t *testing.T) {
	ctx, err := soft.New(4, 4, soft.WithValidator(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Destroy()

	c := color.RGBA{10, 20, 30, 255}
	tex, err := NewSolid(ctx, "solid", 2, 3, c)
	if err != nil {
		t.Fatal(err)
	}
	if !tex.Ready() {
		t.Error("solid texture should be ready")
	}
	if w, h := tex.Size(); w != 2 || h != 3 {
		t.Errorf("Size() = %dx%d", w, h)
	}

	fb, err := ctx.NewFramebuffer(tex.Handle(), nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := ctx.ReadPixels(fb)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(1, 2); got != c {
		t.Errorf("pixel = %v, want %v", got, c)
	}
}

func TestNewEmptyBecomesReadyOnUpload(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	tex, err := NewEmpty(ctx, "empty", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Ready() {
		t.Fatal("empty texture should not be ready")
	}
	if err := tex.Upload(image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	if !tex.Ready() {
		t.Error("texture should be ready after upload")
	}
}

func TestUploadReallocatesOnResize(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	tex, err := NewEmpty(ctx, "grow", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.Upload(image.NewRGBA(image.Rect(0, 0, 8, 4))); err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 8 || h != 4 {
		t.Errorf("Size() = %dx%d, want 8x4", w, h)
	}
	if ctx.Destroyed != 1 {
		t.Errorf("old storage destroyed %d times, want 1", ctx.Destroyed)
	}
}

func TestNewAttachmentIsReady(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	tex, err := NewAttachment(ctx, "depth", 4, 4, gputypes.TextureFormatDepth24PlusStencil8)
	if err != nil {
		t.Fatal(err)
	}
	if !tex.Ready() || tex.Handle().Format() != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Error("attachment should be ready with the requested format")
	}
	tex.Destroy()
	tex.Destroy()
	if tex.Handle() != nil || ctx.Destroyed != 1 {
		t.Error("Destroy should release the handle once")
	}
	if tex.Ready() {
		t.Error("destroyed texture still reports Ready")
	}
}
