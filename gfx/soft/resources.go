// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

type shader struct {
	stage     gfx.Stage
	label     string
	module    *wgsl.Module
	host      gfx.HostStage
	destroyed bool
}

func (s *shader) Stage() gfx.Stage { return s.stage }
func (s *shader) Label() string    { return s.label }
func (s *shader) Destroy()         { s.destroyed = true }

type program struct {
	label    string
	vs       *shader
	fs       *shader
	vertex   gfx.VertexFunc
	fragment gfx.FragmentFunc
	bindings map[string]wgsl.Binding

	// values holds uniform data, up to a 4x4 matrix per name.
	values map[string][16]float32
	// units maps texture uniforms to texture units.
	units map[string]int

	destroyed bool
}

func (p *program) Label() string { return p.label }

func (p *program) Destroy() {
	p.destroyed = true
	p.values = nil
}

type buffer struct {
	kind      gfx.BufferKind
	size      int
	floats    []float32
	indices   []uint16
	destroyed bool
}

func newBuffer(kind gfx.BufferKind, data []byte) *buffer {
	b := &buffer{kind: kind, size: len(data)}
	switch kind {
	case gfx.VertexBuffer:
		b.floats = make([]float32, len(data)/4)
		for i := range b.floats {
			b.floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case gfx.IndexBuffer:
		b.indices = make([]uint16, len(data)/2)
		for i := range b.indices {
			b.indices[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
	}
	return b
}

func (b *buffer) Kind() gfx.BufferKind { return b.kind }
func (b *buffer) Len() int             { return b.size }

func (b *buffer) Destroy() {
	b.destroyed = true
	b.floats = nil
	b.indices = nil
}

// texture stores RGBA8 texels row-major, row 0 first, or float32 depth.
type texture struct {
	label     string
	width     int
	height    int
	format    gputypes.TextureFormat
	pix       []uint8
	depth     []float32
	destroyed bool
}

func newTexture(desc gfx.TextureDescriptor) *texture {
	t := &texture{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
	}
	if gfx.IsDepthFormat(desc.Format) {
		t.depth = make([]float32, desc.Width*desc.Height)
		for i := range t.depth {
			t.depth[i] = 1
		}
	} else {
		t.pix = make([]uint8, desc.Width*desc.Height*4)
	}
	return t
}

func (t *texture) Width() int                     { return t.width }
func (t *texture) Height() int                    { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }

func (t *texture) Destroy() {
	t.destroyed = true
	t.pix = nil
	t.depth = nil
}

// texel returns the normalized color at integer coordinates clamped to
// the texture edge.
func (t *texture) texel(x, y int) mgl32.Vec4 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	i := (y*t.width + x) * 4
	return mgl32.Vec4{
		float32(t.pix[i]) / 255,
		float32(t.pix[i+1]) / 255,
		float32(t.pix[i+2]) / 255,
		float32(t.pix[i+3]) / 255,
	}
}

type framebuffer struct {
	color     *texture
	depth     *texture
	destroyed bool
}

func (f *framebuffer) Width() int  { return f.color.width }
func (f *framebuffer) Height() int { return f.color.height }
func (f *framebuffer) Destroy()    { f.destroyed = true }
