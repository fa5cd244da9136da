// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
)

func TestSPIRVWords(t *testing.T) {
	b := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	words := spirvWords(b)
	if len(words) != 2 {
		t.Fatalf("len = %d, want 2", len(words))
	}
	if words[0] != 0x07230203 {
		t.Errorf("magic = %#x, want 0x07230203", words[0])
	}
	if words[1] != 0x00010000 {
		t.Errorf("version = %#x, want 0x00010000", words[1])
	}
}

func TestPaddedRowBytes(t *testing.T) {
	tests := []struct {
		width int
		want  uint32
	}{
		{1, 256},
		{64, 256},
		{65, 512},
		{512, 2048},
	}
	for _, tt := range tests {
		if got := paddedRowBytes(tt.width); got != tt.want {
			t.Errorf("paddedRowBytes(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestUnpadRows(t *testing.T) {
	const w, h = 2, 3
	pitch := paddedRowBytes(w)
	data := make([]byte, int(pitch)*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			data[int(pitch)*y+x] = byte(y*10 + x)
		}
	}
	img := unpadRows(data, w, h, pitch)
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for y := 0; y < h; y++ {
		c := img.RGBAAt(1, y)
		if want := byte(y*10 + 4); c.R != want {
			t.Errorf("row %d R = %d, want %d", y, c.R, want)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	attrs := map[int]gfx.VertexAttribute{
		1: {Format: gputypes.VertexFormatFloat32x3, Stride: 24, Offset: 12},
		0: {Format: gputypes.VertexFormatFloat32x3, Stride: 24, Offset: 0},
	}
	layouts, err := vertexLayout(attrs)
	if err != nil {
		t.Fatal(err)
	}
	if len(layouts) != 1 {
		t.Fatalf("layouts = %d, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != 24 {
		t.Errorf("stride = %d, want 24", l.ArrayStride)
	}
	if len(l.Attributes) != 2 || l.Attributes[0].ShaderLocation != 0 || l.Attributes[1].Offset != 12 {
		t.Errorf("attributes = %+v", l.Attributes)
	}

	attrs[2] = gfx.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Stride: 8}
	if _, err := vertexLayout(attrs); err == nil {
		t.Error("mixed strides should fail")
	}
	if layouts, err := vertexLayout(nil); err != nil || layouts != nil {
		t.Errorf("empty = %v, %v", layouts, err)
	}
}

func TestPackUniform(t *testing.T) {
	tests := []struct {
		typ    string
		size   int
		floats int
	}{
		{"f32", 16, 1},
		{"vec2<f32>", 16, 2},
		{"vec4<f32>", 16, 4},
		{"mat4x4<f32>", 64, 16},
	}
	var v [16]float32
	for i := range v {
		v[i] = float32(i + 1)
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			buf := packUniform(tt.typ, v, tt.size)
			if len(buf) != tt.size {
				t.Fatalf("len = %d, want %d", len(buf), tt.size)
			}
			for i := 0; i < tt.size/4; i++ {
				got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
				want := float32(0)
				if i < tt.floats {
					want = v[i]
				}
				if got != want {
					t.Errorf("float %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}
