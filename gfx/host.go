// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import "github.com/go-gl/mathgl/mgl32"

// Source is the source of one shader stage.
type Source struct {
	// Label names the stage in diagnostics.
	Label string

	// WGSL is the stage source. It declares exactly one entry point for
	// its stage.
	WGSL string

	// Host is the CPU implementation of the same entry point, used by
	// contexts that execute shaders on the host. It must be a VertexFunc
	// for vertex sources and a FragmentFunc for fragment sources. GPU
	// contexts ignore it.
	Host HostStage
}

// HostStage is a CPU implementation of a shader stage.
type HostStage interface {
	hostStage() Stage
}

// Env gives host stages read access to the uniforms of the active program
// and the textures bound to its sampler uniforms.
type Env interface {
	Float(name string) float32
	Vec2(name string) mgl32.Vec2
	Vec4(name string) mgl32.Vec4
	Mat4(name string) mgl32.Mat4

	// Sample reads the texture behind a sampler uniform with bilinear
	// filtering and clamp-to-edge addressing. uv (0,0) is the top-left
	// corner of the first texel row.
	Sample(name string, uv mgl32.Vec2) mgl32.Vec4

	// TextureSize returns the size in texels of the texture behind a
	// sampler uniform.
	TextureSize(name string) mgl32.Vec2
}

// VertexInput holds one vertex, indexed by attribute location. Missing
// components read as (0, 0, 0, 1).
type VertexInput []mgl32.Vec4

// VertexOutput is the result of a host vertex stage.
type VertexOutput struct {
	// Position is the clip-space position.
	Position mgl32.Vec4

	// Varyings are interpolated across the primitive and handed to the
	// fragment stage. Every invocation of one stage returns the same count.
	Varyings []float32
}

// FragmentInput is one fragment handed to a host fragment stage.
type FragmentInput struct {
	// Coord is the window position of the fragment center (x, y), its
	// depth in [0, 1] (z) and 1/w (w). The origin is the top-left corner
	// and y grows downwards.
	Coord mgl32.Vec4

	// Varyings are the perspective-correct interpolated vertex outputs.
	Varyings []float32
}

// VertexFunc is a host vertex stage.
type VertexFunc func(env Env, in VertexInput) VertexOutput

// FragmentFunc is a host fragment stage returning an RGBA color.
type FragmentFunc func(env Env, in FragmentInput) mgl32.Vec4

func (VertexFunc) hostStage() Stage   { return StageVertex }
func (FragmentFunc) hostStage() Stage { return StageFragment }

// HostStageOf reports the stage a host implementation belongs to.
func HostStageOf(h HostStage) Stage {
	return h.hostStage()
}
