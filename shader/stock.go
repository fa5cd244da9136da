// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/gfx"
)

const screenVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@location(0) a_position: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(a_position, 0.0, 1.0);
    out.uv = vec2<f32>(a_position.x * 0.5 + 0.5, 0.5 - a_position.y * 0.5);
    return out;
}
`

// ScreenVertex is the vertex stage of full-screen passes. It reads a 2D
// a_position in normalized device coordinates and hands the fragment
// stage one varying, the texture coordinate of the covered texel with
// (0,0) at the top-left corner.
func ScreenVertex() gfx.Source {
	return gfx.Source{Label: "screen_vs", WGSL: screenVertexWGSL, Host: screenVertex}
}

var screenVertex gfx.VertexFunc = func(_ gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
	p := in[0]
	return gfx.VertexOutput{
		Position: mgl32.Vec4{p[0], p[1], 0, 1},
		Varyings: []float32{p[0]*0.5 + 0.5, 0.5 - p[1]*0.5},
	}
}
