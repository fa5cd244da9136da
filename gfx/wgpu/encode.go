// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

// submitTimeout bounds the wait for one submitted frame.
const submitTimeout = 5 * time.Second

// passRecord is one render pass: an optional clear followed by draws into
// the same framebuffer.
type passRecord struct {
	fb         *framebuffer
	clear      gfx.ClearMask
	clearColor [4]float32
	clearDepth float32
	draws      []recordedDraw
}

type recordedDraw struct {
	pipeline hal.RenderPipeline
	groups   []hal.BindGroup
	vertices hal.Buffer
	indices  hal.Buffer
	first    int
	count    int
}

// current returns the pass recording into the bound framebuffer.
func (c *Context) current() *passRecord {
	if n := len(c.passes); n > 0 && c.passes[n-1].fb == c.target {
		return c.passes[n-1]
	}
	p := &passRecord{fb: c.target}
	c.passes = append(c.passes, p)
	return p
}

// Clear clears attachments of the active framebuffer. A clear after draws
// starts a new pass so the draws keep their order.
func (c *Context) Clear(mask gfx.ClearMask, color [4]float32, depth float32) {
	p := c.current()
	if len(p.draws) > 0 {
		p = &passRecord{fb: c.target}
		c.passes = append(c.passes, p)
	}
	p.clear |= mask
	if mask&gfx.ClearColor != 0 {
		p.clearColor = color
	}
	if mask&gfx.ClearDepth != 0 {
		p.clearDepth = depth
	}
}

// DrawArrays records a non-indexed triangle list draw.
func (c *Context) DrawArrays(first, count int) {
	c.record(first, count, false)
}

// DrawElements records an indexed triangle list draw.
func (c *Context) DrawElements(count int) {
	if c.indices == nil {
		panic("wgpu: DrawElements with no index buffer bound")
	}
	c.record(0, count, true)
}

func (c *Context) record(first, count int, indexed bool) {
	if c.program == nil {
		panic("wgpu: draw with no active program")
	}
	if c.vertices == nil {
		panic("wgpu: draw with no vertex buffer bound")
	}
	if count <= 0 {
		return
	}
	prog := c.program
	layouts, err := vertexLayout(c.inputAttrs(prog))
	if err != nil {
		c.fail(fmt.Errorf("%s: %w", prog.label, err))
		return
	}
	key := pipelineKey{
		depthTest: c.depthTest,
		cullBack:  c.cullBack,
		hasDepth:  c.target.depth != nil,
		layout:    fmt.Sprint(layouts),
	}
	pipeline, err := c.pipelineFor(prog, key, layouts)
	if err != nil {
		c.fail(err)
		return
	}
	groups, err := c.bindGroups(prog)
	if err != nil {
		c.fail(err)
		return
	}
	d := recordedDraw{
		pipeline: pipeline,
		groups:   groups,
		vertices: c.vertices.hal,
		first:    first,
		count:    count,
	}
	if indexed {
		d.indices = c.indices.hal
	}
	p := c.current()
	p.draws = append(p.draws, d)
}

// inputAttrs keeps the enabled slots the vertex stage reads.
func (c *Context) inputAttrs(p *program) map[int]gfx.VertexAttribute {
	attrs := make(map[int]gfx.VertexAttribute, len(p.vs.module.Inputs))
	for _, in := range p.vs.module.Inputs {
		a, ok := c.attrs[in.Location]
		if !ok {
			panic(fmt.Sprintf("wgpu: attribute %q of %q is not enabled", in.Name, p.label))
		}
		attrs[in.Location] = a
	}
	return attrs
}

func (c *Context) pipelineFor(p *program, key pipelineKey, layouts []gputypes.VertexBufferLayout) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}
	cull := gputypes.CullModeNone
	if key.cullBack {
		cull = gputypes.CullModeBack
	}
	desc := &hal.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vs.hal,
			EntryPoint: p.vs.module.Entry,
			Buffers:    layouts,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fs.hal,
			EntryPoint: p.fs.module.Entry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if key.hasDepth {
		compare := gputypes.CompareFunctionAlways
		if key.depthTest {
			compare = gputypes.CompareFunctionLess
		}
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: key.depthTest,
			DepthCompare:      compare,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0x00,
			StencilWriteMask:  0x00,
		}
	}
	rp, err := c.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %q: %w: %w", p.label, gfx.ErrSetup, err)
	}
	p.pipelines[key] = rp
	return rp, nil
}

// bindGroups snapshots the uniforms and textures of p for one draw. The
// groups and their uniform buffers live until the next submit.
func (c *Context) bindGroups(p *program) ([]hal.BindGroup, error) {
	groups := make([]hal.BindGroup, len(p.groupLayouts))
	for g, layout := range p.groupLayouts {
		var entries []gputypes.BindGroupEntry
		for _, b := range p.bindings {
			if b.Group != g {
				continue
			}
			entry, err := c.bindEntry(p, b)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s_group%d", p.label, g),
			Layout:  layout,
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("wgpu: create bind group for %q: %w", p.label, err)
		}
		c.transient = append(c.transient, func() { c.device.DestroyBindGroup(bg) })
		groups[g] = bg
	}
	return groups, nil
}

func (c *Context) bindEntry(p *program, b wgsl.Binding) (gputypes.BindGroupEntry, error) {
	entry := gputypes.BindGroupEntry{Binding: uint32(b.Binding)} //nolint:gosec // binding index is small
	switch b.Kind {
	case wgsl.Value:
		size := b.Size()
		if size == 0 {
			return entry, fmt.Errorf("wgpu: uniform %q of %q has unsupported type %s", b.Name, p.label, b.Type)
		}
		buf, err := c.upload(b.Name, packUniform(b.Type, p.values[b.Name], size),
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return entry, err
		}
		c.transient = append(c.transient, func() { c.device.DestroyBuffer(buf) })
		entry.Resource = gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(size)}
	case wgsl.Texture:
		tex := c.unitTexture(p, b.Name)
		entry.Resource = gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}
	case wgsl.Sampler:
		entry.Resource = gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}
	}
	return entry, nil
}

func (c *Context) unitTexture(p *program, name string) *texture {
	unit, ok := p.units[name]
	if !ok {
		panic(fmt.Sprintf("wgpu: texture uniform %q of %q has no unit", name, p.label))
	}
	tex := c.units[unit]
	if tex == nil || tex.view == nil {
		panic(fmt.Sprintf("wgpu: no texture bound to unit %d for %q", unit, name))
	}
	return tex
}

// submit encodes every recorded pass, optionally followed by a readback of
// tex, and waits for the queue.
func (c *Context) submit(readback *texture) (*image.RGBA, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	passes := c.passes
	c.passes = nil
	defer c.releaseTransient()
	if err := c.err; err != nil {
		c.err = nil
		return nil, err
	}
	if len(passes) == 0 && readback == nil {
		return nil, nil
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "rendergraph_frame"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rendergraph_frame"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	for _, p := range passes {
		encodePass(encoder, p)
	}

	var staging hal.Buffer
	var pitch uint32
	if readback != nil {
		w, h := uint32(readback.width), uint32(readback.height) //nolint:gosec // sizes validated positive
		pitch = paddedRowBytes(readback.width)
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: readback.hal,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		staging, err = c.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "rendergraph_readback",
			Size:  uint64(pitch) * uint64(h),
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.DiscardEncoding()
			return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
		}
		defer c.device.DestroyBuffer(staging)
		encoder.CopyTextureToBuffer(readback.hal, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: readback.hal, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	fence, err := c.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)
	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, submitTimeout)
	if err != nil || !ok {
		return nil, fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", ok, err)
	}

	if staging == nil {
		return nil, nil
	}
	data := make([]byte, uint64(pitch)*uint64(readback.height)) //nolint:gosec // height validated positive
	if err := c.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return unpadRows(data, readback.width, readback.height, pitch), nil
}

func encodePass(encoder hal.CommandEncoder, p *passRecord) {
	colorLoad := gputypes.LoadOpLoad
	if p.clear&gfx.ClearColor != 0 {
		colorLoad = gputypes.LoadOpClear
	}
	desc := &hal.RenderPassDescriptor{
		Label: p.fb.color.label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       p.fb.color.view,
				LoadOp:     colorLoad,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearColor(p.clearColor),
			},
		},
	}
	if p.fb.depth != nil {
		depthLoad := gputypes.LoadOpLoad
		if p.clear&gfx.ClearDepth != 0 {
			depthLoad = gputypes.LoadOpClear
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              p.fb.depth.view,
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   p.clearDepth,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}

	rp := encoder.BeginRenderPass(desc)
	for _, d := range p.draws {
		rp.SetPipeline(d.pipeline)
		for i, g := range d.groups {
			rp.SetBindGroup(uint32(i), g, nil) //nolint:gosec // group index is small
		}
		rp.SetVertexBuffer(0, d.vertices, 0)
		if d.indices != nil {
			rp.SetIndexBuffer(d.indices, gputypes.IndexFormatUint16, 0)
			rp.DrawIndexed(uint32(d.count), 1, 0, 0, 0) //nolint:gosec // count is positive
			continue
		}
		rp.Draw(uint32(d.count), 1, uint32(d.first), 0) //nolint:gosec // count is positive
	}
	rp.End()
}

func (c *Context) releaseTransient() {
	for _, release := range c.transient {
		release()
	}
	c.transient = nil
}
