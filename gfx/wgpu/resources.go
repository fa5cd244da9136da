// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

type shader struct {
	ctx    *Context
	stage  gfx.Stage
	label  string
	module *wgsl.Module
	hal    hal.ShaderModule
}

func (s *shader) Stage() gfx.Stage { return s.stage }
func (s *shader) Label() string    { return s.label }

func (s *shader) Destroy() {
	if s.hal != nil {
		s.ctx.device.DestroyShaderModule(s.hal)
		s.hal = nil
	}
}

// program owns the bind group layouts of a linked pair of stages and
// the render pipelines built for it, keyed by fixed-function state.
type program struct {
	ctx      *Context
	label    string
	vs, fs   *shader
	bindings []wgsl.Binding
	byName   map[string]wgsl.Binding

	groupLayouts []hal.BindGroupLayout
	layout       hal.PipelineLayout
	pipelines    map[pipelineKey]hal.RenderPipeline

	values map[string][16]float32
	units  map[string]int
}

// pipelineKey is the fixed-function state a render pipeline is baked for.
type pipelineKey struct {
	depthTest bool
	cullBack  bool
	hasDepth  bool
	layout    string
}

func (p *program) Label() string { return p.label }

func (p *program) Destroy() {
	d := p.ctx.device
	for k, rp := range p.pipelines {
		d.DestroyRenderPipeline(rp)
		delete(p.pipelines, k)
	}
	if p.layout != nil {
		d.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	for i, l := range p.groupLayouts {
		if l != nil {
			d.DestroyBindGroupLayout(l)
		}
		p.groupLayouts[i] = nil
	}
}

type buffer struct {
	ctx  *Context
	kind gfx.BufferKind
	size int
	hal  hal.Buffer
}

func (b *buffer) Kind() gfx.BufferKind { return b.kind }
func (b *buffer) Len() int             { return b.size }

func (b *buffer) Destroy() {
	if b.hal != nil {
		b.ctx.device.DestroyBuffer(b.hal)
		b.hal = nil
	}
}

type texture struct {
	ctx    *Context
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	hal    hal.Texture
	view   hal.TextureView
}

func (t *texture) Width() int                     { return t.width }
func (t *texture) Height() int                    { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }

func (t *texture) Destroy() {
	d := t.ctx.device
	if t.view != nil {
		d.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.hal != nil {
		d.DestroyTexture(t.hal)
		t.hal = nil
	}
}

type framebuffer struct {
	color *texture
	depth *texture
}

func (f *framebuffer) Width() int  { return f.color.width }
func (f *framebuffer) Height() int { return f.color.height }

// Destroy detaches the framebuffer. Its textures are owned by the caller.
func (f *framebuffer) Destroy() {}
