// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/gfxtest"
	"github.com/gogpu/rendergraph/shader"
)

const cubeVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;

@vertex
fn vs_main(@location(0) a_position: vec3<f32>, @location(1) a_uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_mvp * vec4<f32>(a_position, 1.0);
    out.uv = a_uv;
    return out;
}
`

const plainFragmentWGSL = `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`

func newProgram(t *testing.T, ctx gfx.Context, attrs ...string) *shader.Program {
	t.Helper()
	p, err := shader.New(ctx, shader.Spec{
		Label:      "cube",
		Vertex:     gfx.Source{Label: "cube_vs", WGSL: cubeVertexWGSL},
		Fragment:   gfx.Source{Label: "cube_fs", WGSL: plainFragmentWGSL},
		Attributes: attrs,
		Uniforms:   []string{"u_mvp"},
	})
	if err != nil {
		t.Fatalf("shader.New: %v", err)
	}
	return p
}

func TestNewLayout(t *testing.T) {
	l := NewLayout(Attr{Position, 3}, Attr{UV, 2}, Attr{Normal, 3}, Attr{Tangent, 3})
	if l.Stride != 44 {
		t.Errorf("Stride = %d, want 44", l.Stride)
	}
	want := []struct {
		offset int
		format gputypes.VertexFormat
	}{
		{0, gputypes.VertexFormatFloat32x3},
		{12, gputypes.VertexFormatFloat32x2},
		{20, gputypes.VertexFormatFloat32x3},
		{32, gputypes.VertexFormatFloat32x3},
	}
	for i, w := range want {
		a := l.Attributes[i]
		if a.Offset != w.offset || a.Format != w.format {
			t.Errorf("attribute %s = offset %d format %v, want %d %v", a.Name, a.Offset, a.Format, w.offset, w.format)
		}
	}
}

func TestNewLayoutPanicsOnBadComponents(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for 5 components")
		}
	}()
	NewLayout(Attr{"a_weights", 5})
}

// Stride times vertex count equals the byte length of the data for every
// built-in geometry.
func TestGeometryStrideCoversData(t *testing.T) {
	tests := []struct {
		name     string
		g        Geometry
		vertices int
		indices  int
	}{
		{"cube", Cube(), 24, 36},
		{"color cube", ColorCube(), 24, 36},
		{"screen quad", ScreenQuad(), 6, 0},
		{"triangle", Triangle(), 3, 0},
		{"color triangle", ColorTriangle(), 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Layout.Stride * tt.vertices; got != len(tt.g.Vertices)*4 {
				t.Errorf("stride*count = %d, byte length = %d", got, len(tt.g.Vertices)*4)
			}
			if len(tt.g.Indices) != tt.indices {
				t.Errorf("indices = %d, want %d", len(tt.g.Indices), tt.indices)
			}
			m, err := NewGeometry(gfxtest.New(1, 1), tt.g)
			if err != nil {
				t.Fatal(err)
			}
			if m.VertexCount() != tt.vertices {
				t.Errorf("VertexCount() = %d, want %d", m.VertexCount(), tt.vertices)
			}
		})
	}
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	l := NewLayout(Attr{Position, 3})
	tests := []struct {
		name     string
		vertices []float32
		indices  []uint16
	}{
		{"partial vertex", []float32{0, 0, 0, 1}, nil},
		{"index out of range", []float32{0, 0, 0, 1, 1, 1}, []uint16{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(gfxtest.New(1, 1), tt.vertices, l, tt.indices)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
	if _, err := New(gfxtest.New(1, 1), nil, Layout{}, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty layout err = %v", err)
	}
}

func TestDrawIndexedUsesIndexCount(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	p := newProgram(t, ctx, Position, UV)
	m, err := NewGeometry(ctx, Cube())
	if err != nil {
		t.Fatal(err)
	}
	p.Use()
	m.Bind(p)
	m.Draw(p)

	if len(ctx.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(ctx.Draws))
	}
	d := ctx.Draws[0]
	if !d.Indexed || d.Count != 36 {
		t.Errorf("draw = %+v, want indexed 36", d)
	}
}

func TestDrawArraysUsesVertexCount(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	p := newProgram(t, ctx, Position, UV)
	l := NewLayout(Attr{Position, 3}, Attr{UV, 2})
	m, err := New(ctx, make([]float32, 5*7), l, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.Use()
	m.Bind(p)
	m.Draw(p)

	d := ctx.Draws[0]
	if d.Indexed || d.First != 0 || d.Count != 7 {
		t.Errorf("draw = %+v, want arrays 0..7", d)
	}
}

func TestBindSetsDeclaredAttributesOnly(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	p := newProgram(t, ctx, Position, UV)
	m, err := NewGeometry(ctx, Cube())
	if err != nil {
		t.Fatal(err)
	}
	ctx.Reset()
	m.Bind(p)

	want := []string{
		"BindVertexBuffer 1056",
		"VertexAttribute 0 stride=44 offset=0",
		"VertexAttribute 1 stride=44 offset=12",
		"BindIndexBuffer 72",
	}
	if len(ctx.Calls) != len(want) {
		t.Fatalf("calls = %v", ctx.Calls)
	}
	for i := range want {
		if ctx.Calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, ctx.Calls[i], want[i])
		}
	}
}

func TestBindPanicsOnMissingAttribute(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	p := newProgram(t, ctx, Position, UV)
	m, err := NewGeometry(ctx, ColorCube())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic: color cube has no a_uv")
		}
	}()
	m.Bind(p)
}

func TestDestroy(t *testing.T) {
	ctx := gfxtest.New(4, 4)
	m, err := NewGeometry(ctx, Cube())
	if err != nil {
		t.Fatal(err)
	}
	m.Destroy()
	m.Destroy()
	if ctx.Destroyed != 2 {
		t.Errorf("destroyed = %d, want 2", ctx.Destroyed)
	}
}
