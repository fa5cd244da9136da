// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/internal/wgsl"
)

// env exposes the uniforms of the active program to host stages.
type env struct {
	ctx  *Context
	prog *program
}

func (e *env) value(name string) [16]float32 {
	b, ok := e.prog.bindings[name]
	if !ok || b.Kind != wgsl.Value {
		panic(fmt.Sprintf("soft: host stage reads undeclared uniform %q of program %q", name, e.prog.label))
	}
	return e.prog.values[name]
}

func (e *env) Float(name string) float32 {
	v := e.value(name)
	return v[0]
}

func (e *env) Vec2(name string) mgl32.Vec2 {
	v := e.value(name)
	return mgl32.Vec2{v[0], v[1]}
}

func (e *env) Vec4(name string) mgl32.Vec4 {
	v := e.value(name)
	return mgl32.Vec4{v[0], v[1], v[2], v[3]}
}

func (e *env) Mat4(name string) mgl32.Mat4 {
	return mgl32.Mat4(e.value(name))
}

func (e *env) texture(name string) *texture {
	b, ok := e.prog.bindings[name]
	if !ok || b.Kind != wgsl.Texture {
		panic(fmt.Sprintf("soft: host stage samples undeclared texture %q of program %q", name, e.prog.label))
	}
	t := e.ctx.units[e.prog.units[name]]
	if t == nil || t.destroyed {
		return nil
	}
	return t
}

// Sample filters the texture behind name. An empty unit reads opaque
// black, like an incomplete texture in GL.
func (e *env) Sample(name string, uv mgl32.Vec2) mgl32.Vec4 {
	t := e.texture(name)
	if t == nil {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return t.bilinear(uv)
}

func (e *env) TextureSize(name string) mgl32.Vec2 {
	t := e.texture(name)
	if t == nil {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{float32(t.width), float32(t.height)}
}

// bilinear samples with clamp-to-edge addressing. Texel centers sit at
// (i+0.5)/width, where the result is exactly the stored texel.
func (t *texture) bilinear(uv mgl32.Vec2) mgl32.Vec4 {
	x := uv[0]*float32(t.width) - 0.5
	y := uv[1]*float32(t.height) - 0.5
	x0f, y0f := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := t.texel(x0, y0)
	if fx == 0 && fy == 0 {
		return c00
	}
	c10 := t.texel(x0+1, y0)
	c01 := t.texel(x0, y0+1)
	c11 := t.texel(x0+1, y0+1)
	top := c00.Mul(1 - fx).Add(c10.Mul(fx))
	bottom := c01.Mul(1 - fx).Add(c11.Mul(fx))
	return top.Mul(1 - fy).Add(bottom.Mul(fy))
}
