// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
)

// copyRowAlignment is the WebGPU bytesPerRow alignment for
// texture-to-buffer copies.
const copyRowAlignment = 256

// spirvWords converts naga output to SPIR-V words. SPIR-V is little-endian.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

// paddedRowBytes returns the staging buffer row pitch for a width in
// RGBA8 texels.
func paddedRowBytes(width int) uint32 {
	n := uint32(width) * 4 //nolint:gosec // texture width fits uint32
	return (n + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
}

// unpadRows copies a padded RGBA8 readback into an image.
func unpadRows(data []byte, width, height int, pitch uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := data[int(pitch)*y:]
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], src[:width*4])
	}
	return img
}

// vertexLayout builds the layout of the single interleaved vertex buffer
// from the enabled attribute slots. All slots must share one stride.
func vertexLayout(attrs map[int]gfx.VertexAttribute) ([]gputypes.VertexBufferLayout, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	slots := make([]int, 0, len(attrs))
	for slot := range attrs {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	stride := attrs[slots[0]].Stride
	layout := gputypes.VertexBufferLayout{
		ArrayStride: uint64(stride), //nolint:gosec // stride is positive
		StepMode:    gputypes.VertexStepModeVertex,
	}
	for _, slot := range slots {
		a := attrs[slot]
		if a.Stride != stride {
			return nil, fmt.Errorf("wgpu: attribute %d stride %d differs from %d", slot, a.Stride, stride)
		}
		layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.Offset), //nolint:gosec // offset is positive
			ShaderLocation: uint32(slot),     //nolint:gosec // slot is a small location
		})
	}
	return []gputypes.VertexBufferLayout{layout}, nil
}

// uniformFloats returns how many float32 components a WGSL value type
// carries.
func uniformFloats(typ string) int {
	switch typ {
	case "f32":
		return 1
	case "vec2<f32>":
		return 2
	case "vec3<f32>":
		return 3
	case "vec4<f32>":
		return 4
	case "mat4x4<f32>":
		return 16
	default:
		return 0
	}
}

// packUniform lays out a value binding in a uniform buffer of size bytes.
// Matrices are column-major, as mgl32 stores them.
func packUniform(typ string, v [16]float32, size int) []byte {
	buf := make([]byte, size)
	n := uniformFloats(typ)
	for i := 0; i < n && (i+1)*4 <= size; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
	return buf
}

// clearColor converts an RGBA clear value.
func clearColor(c [4]float32) gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}
