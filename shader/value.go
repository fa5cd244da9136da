// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/gfx"
)

// Value is a uniform assignment applied by Program.Set.
type Value interface {
	apply(p *Program)
}

type floatValue struct {
	name string
	v    float32
}

func (v floatValue) apply(p *Program) { p.ctx.Uniform1f(p.Uniform(v.name), v.v) }

type vec2Value struct {
	name string
	v    mgl32.Vec2
}

func (v vec2Value) apply(p *Program) { p.ctx.Uniform2f(p.Uniform(v.name), v.v) }

type vec4Value struct {
	name string
	v    mgl32.Vec4
}

func (v vec4Value) apply(p *Program) { p.ctx.Uniform4f(p.Uniform(v.name), v.v) }

type mat4Value struct {
	name string
	m    mgl32.Mat4
}

func (v mat4Value) apply(p *Program) { p.ctx.UniformMat4(p.Uniform(v.name), v.m) }

type samplerValue struct {
	name string
	unit int
	tex  gfx.Texture
}

func (v samplerValue) apply(p *Program) {
	u := p.Uniform(v.name)
	if u.Kind != gfx.UniformTexture {
		panic(fmt.Sprintf("shader %q: uniform %q is not a texture", p.label, v.name))
	}
	p.ctx.BindTexture(v.unit, v.tex)
	p.ctx.UniformSampler(u, v.unit)
}

// Float assigns a scalar.
func Float(name string, v float32) Value { return floatValue{name, v} }

// Vec2 assigns a 2-component vector.
func Vec2(name string, v mgl32.Vec2) Value { return vec2Value{name, v} }

// Vec4 assigns a 4-component vector.
func Vec4(name string, v mgl32.Vec4) Value { return vec4Value{name, v} }

// Mat4 assigns a column-major 4x4 matrix.
func Mat4(name string, m mgl32.Mat4) Value { return mat4Value{name, m} }

// Sampler binds tex to a texture unit and points the texture uniform at it.
func Sampler(name string, unit int, tex gfx.Texture) Value {
	return samplerValue{name, unit, tex}
}
