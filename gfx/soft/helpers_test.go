// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
)

const flatVertexWGSL = `
@group(0) @binding(0) var<uniform> u_color: vec4<f32>;

@vertex
fn vs_main(@location(0) a_position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(a_position, 1.0);
}
`

const flatFragmentWGSL = `
@group(0) @binding(0) var<uniform> u_color: vec4<f32>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u_color;
}
`

const uvVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@location(0) a_position: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(a_position, 1.0);
    out.uv = vec2<f32>(a_position.x * 0.5 + 0.5, 0.5 - a_position.y * 0.5);
    return out;
}
`

const uvFragmentWGSL = `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`

const copyFragmentWGSL = `
@group(0) @binding(0) var u_image: texture_2d<f32>;
@group(0) @binding(1) var u_image_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_image, u_image_sampler, uv);
}
`

var passthroughVertex gfx.VertexFunc = func(_ gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
	p := in[0]
	return gfx.VertexOutput{Position: mgl32.Vec4{p[0], p[1], p[2], 1}}
}

var uvVertex gfx.VertexFunc = func(_ gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
	p := in[0]
	return gfx.VertexOutput{
		Position: mgl32.Vec4{p[0], p[1], p[2], 1},
		Varyings: []float32{p[0]*0.5 + 0.5, 0.5 - p[1]*0.5},
	}
}

var flatFragment gfx.FragmentFunc = func(env gfx.Env, _ gfx.FragmentInput) mgl32.Vec4 {
	return env.Vec4("u_color")
}

var uvFragment gfx.FragmentFunc = func(_ gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
	return mgl32.Vec4{in.Varyings[0], in.Varyings[1], 0, 1}
}

var copyFragment gfx.FragmentFunc = func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
	return env.Sample("u_image", mgl32.Vec2{in.Varyings[0], in.Varyings[1]})
}

// newTestContext returns a context that skips naga validation.
func newTestContext(t *testing.T, w, h int) *Context {
	t.Helper()
	ctx, err := New(w, h, WithValidator(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx
}

func mustLink(t *testing.T, ctx *Context, vs, fs gfx.Source) gfx.Program {
	t.Helper()
	v, err := ctx.CompileShader(gfx.StageVertex, vs)
	if err != nil {
		t.Fatalf("compile vertex: %v", err)
	}
	f, err := ctx.CompileShader(gfx.StageFragment, fs)
	if err != nil {
		t.Fatalf("compile fragment: %v", err)
	}
	p, err := ctx.LinkProgram(v, f)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	return p
}

func floatBytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// quad returns two counter-clockwise triangles covering NDC at depth z.
func quad(z float32) []float32 {
	return []float32{
		-1, -1, z, 1, -1, z, 1, 1, z,
		-1, -1, z, 1, 1, z, -1, 1, z,
	}
}

// bindPositions binds a vec3 position buffer to location 0.
func bindPositions(t *testing.T, ctx *Context, verts []float32) {
	t.Helper()
	buf, err := ctx.NewBuffer(gfx.VertexBuffer, floatBytes(verts))
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	ctx.BindVertexBuffer(buf)
	ctx.VertexAttribute(0, gfx.VertexAttribute{Format: gputypes.VertexFormatFloat32x3, Stride: 12})
}

func drawFlat(t *testing.T, ctx *Context, verts []float32, color mgl32.Vec4) {
	t.Helper()
	p := mustLink(t, ctx,
		gfx.Source{Label: "flat_vs", WGSL: flatVertexWGSL, Host: passthroughVertex},
		gfx.Source{Label: "flat_fs", WGSL: flatFragmentWGSL, Host: flatFragment})
	ctx.UseProgram(p)
	u, err := ctx.UniformLocation(p, "u_color")
	if err != nil {
		t.Fatal(err)
	}
	ctx.Uniform4f(u, color)
	bindPositions(t, ctx, verts)
	ctx.DrawArrays(0, len(verts)/3)
}
