// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mesh owns immutable vertex and index buffers together with the
// layout that describes them.
package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/shader"
)

// ErrInvalid is returned when vertex data and layout disagree.
var ErrInvalid = errors.New("mesh: invalid geometry")

// Geometry is CPU-side mesh data.
type Geometry struct {
	Vertices []float32
	Layout   Layout
	// Indices is nil for non-indexed geometry.
	Indices []uint16
}

// Mesh is geometry uploaded to a context.
type Mesh struct {
	ctx         gfx.Context
	vertices    gfx.Buffer
	indices     gfx.Buffer
	layout      Layout
	vertexCount int
	indexCount  int
}

// New uploads vertices and optional indices. The vertex data must be a
// whole number of vertices and every index must address one of them.
func New(ctx gfx.Context, vertices []float32, layout Layout, indices []uint16) (*Mesh, error) {
	if layout.Stride == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalid)
	}
	byteLen := len(vertices) * sizeofFloat
	if byteLen%layout.Stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes of vertex data is not a multiple of stride %d",
			ErrInvalid, byteLen, layout.Stride)
	}
	count := byteLen / layout.Stride
	for i, idx := range indices {
		if int(idx) >= count {
			return nil, fmt.Errorf("%w: index %d at %d addresses %d vertices", ErrInvalid, idx, i, count)
		}
	}

	vb, err := ctx.NewBuffer(gfx.VertexBuffer, floatBytes(vertices))
	if err != nil {
		return nil, fmt.Errorf("mesh: vertex buffer: %w", err)
	}
	m := &Mesh{
		ctx:         ctx,
		vertices:    vb,
		layout:      layout,
		vertexCount: count,
		indexCount:  len(indices),
	}
	if len(indices) > 0 {
		ib, err := ctx.NewBuffer(gfx.IndexBuffer, indexBytes(indices))
		if err != nil {
			vb.Destroy()
			return nil, fmt.Errorf("mesh: index buffer: %w", err)
		}
		m.indices = ib
	}
	return m, nil
}

// NewGeometry uploads g.
func NewGeometry(ctx gfx.Context, g Geometry) (*Mesh, error) {
	return New(ctx, g.Vertices, g.Layout, g.Indices)
}

// Layout returns the vertex layout.
func (m *Mesh) Layout() Layout { return m.layout }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// IndexCount returns the number of indices, 0 when not indexed.
func (m *Mesh) IndexCount() int { return m.indexCount }

// Indexed reports whether the mesh draws through an index buffer.
func (m *Mesh) Indexed() bool { return m.indices != nil }

// Bind binds the mesh buffers and points every attribute p declares at
// its place in the layout. Attributes in the layout that p does not
// declare are skipped. It panics when p declares an attribute the layout
// lacks.
func (m *Mesh) Bind(p *shader.Program) {
	m.ctx.BindVertexBuffer(m.vertices)
	for _, name := range p.Attributes() {
		a, ok := m.layout.Attribute(name)
		if !ok {
			panic(fmt.Sprintf("mesh: program %q reads attribute %q missing from layout", p.Label(), name))
		}
		m.ctx.VertexAttribute(p.Attribute(name), gfx.VertexAttribute{
			Format: a.Format,
			Stride: m.layout.Stride,
			Offset: a.Offset,
		})
	}
	if m.indices != nil {
		m.ctx.BindIndexBuffer(m.indices)
	}
}

// Draw writes values to the active program and draws the whole mesh. Bind
// must have been called since the last bind of other geometry.
func (m *Mesh) Draw(p *shader.Program, values ...shader.Value) {
	p.Set(values...)
	if m.indices != nil {
		m.ctx.DrawElements(m.indexCount)
		return
	}
	m.ctx.DrawArrays(0, m.vertexCount)
}

// Destroy releases the buffers.
func (m *Mesh) Destroy() {
	if m.vertices != nil {
		m.vertices.Destroy()
		m.vertices = nil
	}
	if m.indices != nil {
		m.indices.Destroy()
		m.indices = nil
	}
}

func floatBytes(v []float32) []byte {
	b := make([]byte, len(v)*sizeofFloat)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*sizeofFloat:], math.Float32bits(f))
	}
	return b
}

func indexBytes(v []uint16) []byte {
	b := make([]byte, len(v)*2)
	for i, idx := range v {
		binary.LittleEndian.PutUint16(b[i*2:], idx)
	}
	return b
}
