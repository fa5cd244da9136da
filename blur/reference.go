// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blur

import (
	"image"

	"github.com/chewxy/math32"
)

// Convolve applies k along one axis of src on the CPU with edge
// extension, texel by texel. It is the reference a Pass with radius
// factor 1 approximates through bilinear taps.
func Convolve(src *image.RGBA, k Kernel, axis Axis) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	half := k.Radius()
	dx, dy := 1, 0
	if axis == Vertical {
		dx, dy = 0, 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float32
			for i, weight := range k {
				sx := clampInt(x+(i-half)*dx, 0, w-1)
				sy := clampInt(y+(i-half)*dy, 0, h-1)
				p := src.Pix[src.PixOffset(b.Min.X+sx, b.Min.Y+sy):]
				for c := range acc {
					acc[c] += float32(p[c]) * weight
				}
			}
			o := dst.PixOffset(x, y)
			for c, v := range acc {
				dst.Pix[o+c] = clampUint8(v)
			}
		}
	}
	return dst
}

func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func clampUint8(v float32) uint8 {
	v = math32.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
