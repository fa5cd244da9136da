// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

// maxTextureUnits matches the minimum guaranteed by WebGL.
const maxTextureUnits = 8

// Context is a GPU gfx.Context.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	shared   bool

	width, height int
	screen        *framebuffer
	sampler       hal.Sampler
	owned         []interface{ Destroy() }

	program   *program
	target    *framebuffer
	vertices  *buffer
	indices   *buffer
	attrs     map[int]gfx.VertexAttribute
	units     [maxTextureUnits]*texture
	depthTest bool
	cullBack  bool

	passes    []*passRecord
	transient []func()
	err       error

	frames    uint64
	destroyed bool
}

var _ gfx.Context = (*Context)(nil)

func newContext(device hal.Device, queue hal.Queue, width, height int) (*Context, error) {
	c := &Context{
		device: device,
		queue:  queue,
		width:  width,
		height: height,
		attrs:  make(map[int]gfx.VertexAttribute),
	}
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "rendergraph_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w: %w", gfx.ErrSetup, err)
	}
	c.sampler = sampler

	color, err := c.createTexture(gfx.TextureDescriptor{Label: "screen", Width: width, Height: height, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		c.release()
		return nil, err
	}
	c.own(color)
	depth, err := c.createTexture(gfx.TextureDescriptor{Label: "screen_depth", Width: width, Height: height, Format: gputypes.TextureFormatDepth24PlusStencil8})
	if err != nil {
		c.release()
		return nil, err
	}
	c.own(depth)
	c.screen = &framebuffer{color: color, depth: depth}
	c.target = c.screen
	rendergraph.Logger().Info("wgpu: context created", "width", width, "height", height)
	return c, nil
}

// Name returns "wgpu".
func (c *Context) Name() string { return "wgpu" }

// Size returns the display surface size.
func (c *Context) Size() (int, int) { return c.width, c.height }

// Frames returns the number of completed frames.
func (c *Context) Frames() uint64 { return c.frames }

// CompileShader compiles src to SPIR-V and creates a shader module.
func (c *Context) CompileShader(stage gfx.Stage, src gfx.Source) (gfx.Shader, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	fail := func(log string) (gfx.Shader, error) {
		return nil, &gfx.CompileError{Stage: stage, Label: src.Label, Log: log}
	}
	m, err := wgsl.Reflect(src.WGSL)
	if err != nil {
		return fail(err.Error())
	}
	if m.Stage != wgsl.Stage(stage.String()) {
		return fail(fmt.Sprintf("entry point %q is a %s entry point", m.Entry, m.Stage))
	}
	spirv, err := naga.Compile(src.WGSL)
	if err != nil {
		return fail(err.Error())
	}
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  src.Label,
		Source: hal.ShaderSource{SPIRV: spirvWords(spirv)},
	})
	if err != nil {
		return fail(err.Error())
	}
	s := &shader{ctx: c, stage: stage, label: src.Label, module: m, hal: module}
	c.own(s)
	return s, nil
}

// LinkProgram merges the interfaces of vs and fs and creates their bind
// group layouts. Render pipelines are created on first draw.
func (c *Context) LinkProgram(vs, fs gfx.Shader) (gfx.Program, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	v, vok := vs.(*shader)
	f, fok := fs.(*shader)
	if !vok || !fok || v.ctx != c || f.ctx != c {
		return nil, fmt.Errorf("wgpu: shader from another context: %w", gfx.ErrSetup)
	}
	label := v.label + "+" + f.label
	if v.hal == nil || f.hal == nil {
		return nil, &gfx.LinkError{Label: label, Log: "shader destroyed"}
	}
	merged, err := wgsl.Link(v.module, f.module)
	if err != nil {
		return nil, &gfx.LinkError{Label: label, Log: err.Error()}
	}
	p := &program{
		ctx:       c,
		label:     label,
		vs:        v,
		fs:        f,
		bindings:  merged,
		byName:    make(map[string]wgsl.Binding, len(merged)),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		values:    make(map[string][16]float32),
		units:     make(map[string]int),
	}
	for _, b := range merged {
		p.byName[b.Name] = b
	}
	if err := c.createLayouts(p); err != nil {
		p.Destroy()
		return nil, &gfx.LinkError{Label: label, Log: err.Error()}
	}
	c.own(p)
	return p, nil
}

func (c *Context) createLayouts(p *program) error {
	groups := 0
	for _, b := range p.bindings {
		if b.Group+1 > groups {
			groups = b.Group + 1
		}
	}
	p.groupLayouts = make([]hal.BindGroupLayout, groups)
	for g := range p.groupLayouts {
		var entries []gputypes.BindGroupLayoutEntry
		for _, b := range p.bindings {
			if b.Group != g {
				continue
			}
			entry := gputypes.BindGroupLayoutEntry{
				Binding:    uint32(b.Binding), //nolint:gosec // binding index is small
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			}
			switch b.Kind {
			case wgsl.Value:
				entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
			case wgsl.Texture:
				entry.Texture = &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				}
			case wgsl.Sampler:
				entry.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
			}
			entries = append(entries, entry)
		}
		layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", p.label, g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("create bind group layout %d: %w", g, err)
		}
		p.groupLayouts[g] = layout
	}
	layout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.label + "_layout",
		BindGroupLayouts: p.groupLayouts,
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.layout = layout
	return nil
}

// AttributeLocation returns the @location of a vertex input.
func (c *Context) AttributeLocation(p gfx.Program, name string) (int, error) {
	prog := mustProgram(p)
	for _, in := range prog.vs.module.Inputs {
		if in.Name == name {
			return in.Location, nil
		}
	}
	return -1, &gfx.NotFoundError{Kind: gfx.BindingAttribute, Name: name, Program: prog.label}
}

// UniformLocation resolves a value or texture binding.
func (c *Context) UniformLocation(p gfx.Program, name string) (gfx.Uniform, error) {
	prog := mustProgram(p)
	b, ok := prog.byName[name]
	if !ok || b.Kind == wgsl.Sampler {
		return gfx.Uniform{}, &gfx.NotFoundError{Kind: gfx.BindingUniform, Name: name, Program: prog.label}
	}
	u := gfx.Uniform{Name: name, Group: b.Group, Binding: b.Binding, Type: b.Type}
	if b.Kind == wgsl.Texture {
		u.Kind = gfx.UniformTexture
	}
	return u, nil
}

// NewBuffer creates a vertex or index buffer holding data.
func (c *Context) NewBuffer(kind gfx.BufferKind, data []byte) (gfx.Buffer, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	usage := gputypes.BufferUsageVertex
	switch {
	case kind == gfx.VertexBuffer && len(data)%4 != 0:
		return nil, fmt.Errorf("wgpu: vertex buffer size %d is not a multiple of 4: %w", len(data), gfx.ErrSetup)
	case kind == gfx.IndexBuffer && len(data)%2 != 0:
		return nil, fmt.Errorf("wgpu: index buffer size %d is not a multiple of 2: %w", len(data), gfx.ErrSetup)
	case kind == gfx.IndexBuffer:
		usage = gputypes.BufferUsageIndex
	}
	// Queue writes must be 4-byte aligned.
	padded := data
	if len(padded)%4 != 0 {
		padded = append(append([]byte(nil), data...), 0, 0)
	}
	hb, err := c.upload("buffer", padded, usage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w: %w", gfx.ErrSetup, err)
	}
	b := &buffer{ctx: c, kind: kind, size: len(data), hal: hb}
	c.own(b)
	return b, nil
}

// upload creates a buffer and writes data through the queue.
func (c *Context) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := uint64(len(data))
	if size == 0 {
		size = 4
	}
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if len(data) > 0 {
		c.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// NewTexture allocates a texture. WebGPU zero-initializes it.
func (c *Context) NewTexture(desc gfx.TextureDescriptor) (gfx.Texture, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid texture size %dx%d: %w", desc.Width, desc.Height, gfx.ErrSetup)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm && !gfx.IsDepthFormat(desc.Format) {
		return nil, fmt.Errorf("wgpu: unsupported texture format %v: %w", desc.Format, gfx.ErrSetup)
	}
	t, err := c.createTexture(desc)
	if err != nil {
		return nil, err
	}
	c.own(t)
	return t, nil
}

func (c *Context) createTexture(desc gfx.TextureDescriptor) (*texture, error) {
	usage := gputypes.TextureUsageRenderAttachment
	if !gfx.IsDepthFormat(desc.Format) {
		usage |= gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	}
	size := hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1} //nolint:gosec // sizes validated positive
	ht, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w: %w", desc.Label, gfx.ErrSetup, err)
	}
	view, err := c.device.CreateTextureView(ht, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(ht)
		return nil, fmt.Errorf("wgpu: create view %q: %w: %w", desc.Label, gfx.ErrSetup, err)
	}
	return &texture{
		ctx:    c,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		hal:    ht,
		view:   view,
	}, nil
}

// UploadTexture writes img into a color texture. Pending draws are
// submitted first so they sample the previous contents.
func (c *Context) UploadTexture(t gfx.Texture, img *image.RGBA) error {
	tex, ok := t.(*texture)
	if !ok || tex.ctx != c {
		return fmt.Errorf("wgpu: texture from another context: %w", gfx.ErrSetup)
	}
	if tex.hal == nil {
		return gfx.ErrDestroyed
	}
	if gfx.IsDepthFormat(tex.format) {
		return fmt.Errorf("wgpu: cannot upload into depth texture %q: %w", tex.label, gfx.ErrSetup)
	}
	b := img.Bounds()
	if b.Dx() != tex.width || b.Dy() != tex.height {
		return fmt.Errorf("wgpu: image %dx%d does not match texture %q %dx%d: %w",
			b.Dx(), b.Dy(), tex.label, tex.width, tex.height, gfx.ErrSetup)
	}
	if _, err := c.submit(nil); err != nil {
		return err
	}
	pix := img.Pix
	if img.Stride != tex.width*4 || b.Min != (image.Point{}) {
		packed := image.NewRGBA(image.Rect(0, 0, tex.width, tex.height))
		for y := 0; y < tex.height; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(packed.Pix[y*packed.Stride:], row[:tex.width*4])
		}
		pix = packed.Pix
	}
	w, h := uint32(tex.width), uint32(tex.height) //nolint:gosec // sizes validated positive
	c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex.hal, MipLevel: 0},
		pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

// NewFramebuffer pairs a color texture with an optional depth texture.
func (c *Context) NewFramebuffer(color, depth gfx.Texture) (gfx.Framebuffer, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	ct, ok := color.(*texture)
	if !ok || ct.ctx != c || gfx.IsDepthFormat(ct.format) {
		return nil, fmt.Errorf("wgpu: framebuffer color attachment must be a color texture: %w", gfx.ErrSetup)
	}
	fb := &framebuffer{color: ct}
	if depth != nil {
		dt, ok := depth.(*texture)
		if !ok || dt.ctx != c || !gfx.IsDepthFormat(dt.format) {
			return nil, fmt.Errorf("wgpu: framebuffer depth attachment must be a depth texture: %w", gfx.ErrSetup)
		}
		if dt.width != ct.width || dt.height != ct.height {
			return nil, fmt.Errorf("wgpu: framebuffer attachments differ in size: %w", gfx.ErrSetup)
		}
		fb.depth = dt
	}
	return fb, nil
}

// UseProgram makes p the active program.
func (c *Context) UseProgram(p gfx.Program) {
	if p == nil {
		c.program = nil
		return
	}
	c.program = mustProgram(p)
}

// BindFramebuffer selects the draw destination.
func (c *Context) BindFramebuffer(fb gfx.Framebuffer) {
	if fb == nil {
		c.target = c.screen
		return
	}
	f, ok := fb.(*framebuffer)
	if !ok {
		panic("wgpu: framebuffer from another context")
	}
	c.target = f
}

// BindVertexBuffer sets the active vertex buffer.
func (c *Context) BindVertexBuffer(b gfx.Buffer) {
	c.vertices = mustBuffer(b, gfx.VertexBuffer)
}

// BindIndexBuffer sets the active index buffer.
func (c *Context) BindIndexBuffer(b gfx.Buffer) {
	c.indices = mustBuffer(b, gfx.IndexBuffer)
}

// VertexAttribute enables an attribute slot.
func (c *Context) VertexAttribute(slot int, attr gfx.VertexAttribute) {
	c.attrs[slot] = attr
}

// BindTexture binds t to a texture unit.
func (c *Context) BindTexture(unit int, t gfx.Texture) {
	if unit < 0 || unit >= maxTextureUnits {
		panic(fmt.Sprintf("wgpu: texture unit %d out of range", unit))
	}
	if t == nil {
		c.units[unit] = nil
		return
	}
	tex, ok := t.(*texture)
	if !ok {
		panic("wgpu: texture from another context")
	}
	c.units[unit] = tex
}

func (c *Context) setValue(u gfx.Uniform, v [16]float32) {
	if c.program == nil {
		panic("wgpu: uniform set with no active program")
	}
	c.program.values[u.Name] = v
}

// Uniform1f sets a float uniform.
func (c *Context) Uniform1f(u gfx.Uniform, v float32) { c.setValue(u, [16]float32{v}) }

// Uniform2f sets a vec2 uniform.
func (c *Context) Uniform2f(u gfx.Uniform, v mgl32.Vec2) { c.setValue(u, [16]float32{v[0], v[1]}) }

// Uniform4f sets a vec4 uniform.
func (c *Context) Uniform4f(u gfx.Uniform, v mgl32.Vec4) {
	c.setValue(u, [16]float32{v[0], v[1], v[2], v[3]})
}

// UniformMat4 sets a mat4 uniform.
func (c *Context) UniformMat4(u gfx.Uniform, m mgl32.Mat4) { c.setValue(u, [16]float32(m)) }

// UniformSampler points a texture uniform at a unit.
func (c *Context) UniformSampler(u gfx.Uniform, unit int) {
	if c.program == nil {
		panic("wgpu: uniform set with no active program")
	}
	c.program.units[u.Name] = unit
}

// SetDepthTest toggles depth testing.
func (c *Context) SetDepthTest(enable bool) { c.depthTest = enable }

// SetCullBack toggles back-face culling.
func (c *Context) SetCullBack(enable bool) { c.cullBack = enable }

// BeginFrame starts recording a frame.
func (c *Context) BeginFrame() {}

// EndFrame submits the recorded frame and waits for it to complete.
func (c *Context) EndFrame() error {
	if _, err := c.submit(nil); err != nil {
		return err
	}
	c.frames++
	return nil
}

// ReadPixels submits pending work and copies the color attachment of fb
// back to host memory.
func (c *Context) ReadPixels(fb gfx.Framebuffer) (*image.RGBA, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	f := c.screen
	if fb != nil {
		var ok bool
		if f, ok = fb.(*framebuffer); !ok {
			return nil, fmt.Errorf("wgpu: framebuffer from another context: %w", gfx.ErrSetup)
		}
	}
	return c.submit(f.color)
}

// Destroy releases every resource created by the context. A device
// obtained from a provider stays open.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.release()
	if !c.shared {
		if c.device != nil {
			c.device.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
}

// release destroys the resources created on the device, newest first.
func (c *Context) release() {
	c.releaseTransient()
	for i := len(c.owned) - 1; i >= 0; i-- {
		c.owned[i].Destroy()
	}
	c.owned = nil
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
}

func (c *Context) own(r interface{ Destroy() }) {
	c.owned = append(c.owned, r)
}

// fail records the first error raised while recording draws. EndFrame
// returns it.
func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func mustProgram(p gfx.Program) *program {
	prog, ok := p.(*program)
	if !ok {
		panic("wgpu: program from another context")
	}
	return prog
}

func mustBuffer(b gfx.Buffer, kind gfx.BufferKind) *buffer {
	if b == nil {
		return nil
	}
	buf, ok := b.(*buffer)
	if !ok {
		panic("wgpu: buffer from another context")
	}
	if buf.kind != kind {
		panic(errors.New("wgpu: buffer bound to the wrong binding point"))
	}
	return buf
}
