// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

// maxTextureUnits matches the minimum guaranteed by WebGL.
const maxTextureUnits = 8

// Context is a CPU gfx.Context.
type Context struct {
	width, height int
	opts          options
	screen        *framebuffer

	program   *program
	target    *framebuffer
	vertices  *buffer
	indices   *buffer
	attrs     map[int]gfx.VertexAttribute
	units     [maxTextureUnits]*texture
	depthTest bool
	cullBack  bool

	frames    uint64
	destroyed bool
}

var _ gfx.Context = (*Context)(nil)

// New creates a context whose display surface is width x height pixels.
func New(width, height int, opts ...Option) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("soft: invalid surface size %dx%d: %w", width, height, gfx.ErrSetup)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		width:  width,
		height: height,
		opts:   o,
		attrs:  make(map[int]gfx.VertexAttribute),
		screen: &framebuffer{
			color: newTexture(gfx.TextureDescriptor{Label: "screen", Width: width, Height: height, Format: gputypes.TextureFormatRGBA8Unorm}),
			depth: newTexture(gfx.TextureDescriptor{Label: "screen_depth", Width: width, Height: height, Format: gputypes.TextureFormatDepth24PlusStencil8}),
		},
	}
	c.target = c.screen
	rendergraph.Logger().Info("soft: context created", "width", width, "height", height)
	return c, nil
}

// Name returns "soft".
func (c *Context) Name() string { return "soft" }

// Size returns the display surface size.
func (c *Context) Size() (int, int) { return c.width, c.height }

// Frames returns the number of completed frames.
func (c *Context) Frames() uint64 { return c.frames }

// CompileShader validates src and reflects its interface.
func (c *Context) CompileShader(stage gfx.Stage, src gfx.Source) (gfx.Shader, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	fail := func(log string) (gfx.Shader, error) {
		return nil, &gfx.CompileError{Stage: stage, Label: src.Label, Log: log}
	}
	if c.opts.validate != nil {
		if err := c.opts.validate(src.WGSL); err != nil {
			return fail(err.Error())
		}
	}
	m, err := wgsl.Reflect(src.WGSL)
	if err != nil {
		return fail(err.Error())
	}
	if m.Stage != wgsl.Stage(stage.String()) {
		return fail(fmt.Sprintf("entry point %q is a %s entry point", m.Entry, m.Stage))
	}
	if src.Host != nil && gfx.HostStageOf(src.Host) != stage {
		return fail(fmt.Sprintf("host implementation is a %s stage", gfx.HostStageOf(src.Host)))
	}
	return &shader{stage: stage, label: src.Label, module: m, host: src.Host}, nil
}

// LinkProgram merges the interfaces of vs and fs.
func (c *Context) LinkProgram(vs, fs gfx.Shader) (gfx.Program, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	v, vok := vs.(*shader)
	f, fok := fs.(*shader)
	if !vok || !fok {
		return nil, fmt.Errorf("soft: shader from another context: %w", gfx.ErrSetup)
	}
	label := v.label + "+" + f.label
	if v.destroyed || f.destroyed {
		return nil, &gfx.LinkError{Label: label, Log: "shader destroyed"}
	}
	merged, err := wgsl.Link(v.module, f.module)
	if err != nil {
		return nil, &gfx.LinkError{Label: label, Log: err.Error()}
	}
	vf, _ := v.host.(gfx.VertexFunc)
	ff, _ := f.host.(gfx.FragmentFunc)
	if vf == nil {
		return nil, &gfx.LinkError{Label: label, Log: "no host implementation for vertex entry point " + v.module.Entry}
	}
	if ff == nil {
		return nil, &gfx.LinkError{Label: label, Log: "no host implementation for fragment entry point " + f.module.Entry}
	}
	p := &program{
		label:    label,
		vs:       v,
		fs:       f,
		vertex:   vf,
		fragment: ff,
		bindings: make(map[string]wgsl.Binding, len(merged)),
		values:   make(map[string][16]float32),
		units:    make(map[string]int),
	}
	for _, b := range merged {
		p.bindings[b.Name] = b
	}
	return p, nil
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
	b, ok := prog.bindings[name]
	if !ok || b.Kind == wgsl.Sampler {
		return gfx.Uniform{}, &gfx.NotFoundError{Kind: gfx.BindingUniform, Name: name, Program: prog.label}
	}
	u := gfx.Uniform{Name: name, Group: b.Group, Binding: b.Binding, Type: b.Type}
	if b.Kind == wgsl.Texture {
		u.Kind = gfx.UniformTexture
	}
	return u, nil
}

// NewBuffer copies data into a new buffer.
func (c *Context) NewBuffer(kind gfx.BufferKind, data []byte) (gfx.Buffer, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	switch {
	case kind == gfx.VertexBuffer && len(data)%4 != 0:
		return nil, fmt.Errorf("soft: vertex buffer size %d is not a multiple of 4: %w", len(data), gfx.ErrSetup)
	case kind == gfx.IndexBuffer && len(data)%2 != 0:
		return nil, fmt.Errorf("soft: index buffer size %d is not a multiple of 2: %w", len(data), gfx.ErrSetup)
	}
	return newBuffer(kind, data), nil
}

// NewTexture allocates a cleared texture.
func (c *Context) NewTexture(desc gfx.TextureDescriptor) (gfx.Texture, error) {
	if c.destroyed {
		return nil, gfx.ErrDestroyed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("soft: invalid texture size %dx%d: %w", desc.Width, desc.Height, gfx.ErrSetup)
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm && !gfx.IsDepthFormat(desc.Format) {
		return nil, fmt.Errorf("soft: unsupported texture format %v: %w", desc.Format, gfx.ErrSetup)
	}
	return newTexture(desc), nil
}

// UploadTexture copies img into a color texture.
func (c *Context) UploadTexture(t gfx.Texture, img *image.RGBA) error {
	tex, ok := t.(*texture)
	if !ok {
		return fmt.Errorf("soft: texture from another context: %w", gfx.ErrSetup)
	}
	if tex.destroyed {
		return gfx.ErrDestroyed
	}
	if tex.pix == nil {
		return fmt.Errorf("soft: cannot upload to depth texture %q: %w", tex.label, gfx.ErrSetup)
	}
	b := img.Bounds()
	if b.Dx() != tex.width || b.Dy() != tex.height {
		return fmt.Errorf("soft: image %dx%d does not match texture %dx%d: %w",
			b.Dx(), b.Dy(), tex.width, tex.height, gfx.ErrSetup)
	}
	row := tex.width * 4
	for y := 0; y < tex.height; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(tex.pix[y*row:(y+1)*row], img.Pix[src:src+row])
	}
	return nil
}

// NewFramebuffer attaches an RGBA8 color texture and an optional depth
// texture of the same size.
func (c *Context) NewFramebuffer(color, depth gfx.Texture) (gfx.Framebuffer, error) {
	ct, ok := color.(*texture)
	if !ok || ct == nil || ct.pix == nil {
		return nil, fmt.Errorf("soft: framebuffer needs a color texture: %w", gfx.ErrSetup)
	}
	fb := &framebuffer{color: ct}
	if depth != nil {
		dt, ok := depth.(*texture)
		if !ok || dt.depth == nil {
			return nil, fmt.Errorf("soft: framebuffer depth attachment is not a depth texture: %w", gfx.ErrSetup)
		}
		if dt.width != ct.width || dt.height != ct.height {
			return nil, fmt.Errorf("soft: attachment sizes differ (%dx%d vs %dx%d): %w",
				ct.width, ct.height, dt.width, dt.height, gfx.ErrSetup)
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

// BindFramebuffer selects the draw destination; nil selects the screen.
func (c *Context) BindFramebuffer(fb gfx.Framebuffer) {
	if fb == nil {
		c.target = c.screen
		return
	}
	f, ok := fb.(*framebuffer)
	if !ok {
		panic("soft: framebuffer from another context")
	}
	if f.destroyed {
		panic("soft: bind of destroyed framebuffer")
	}
	c.target = f
}

// Clear clears the active framebuffer.
func (c *Context) Clear(mask gfx.ClearMask, color [4]float32, depth float32) {
	fb := c.target
	if mask&gfx.ClearColor != 0 {
		px := [4]uint8{quantize(color[0]), quantize(color[1]), quantize(color[2]), quantize(color[3])}
		pix := fb.color.pix
		for i := 0; i < len(pix); i += 4 {
			copy(pix[i:i+4], px[:])
		}
	}
	if mask&gfx.ClearDepth != 0 && fb.depth != nil {
		for i := range fb.depth.depth {
			fb.depth.depth[i] = depth
		}
	}
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
	if components(attr.Format) == 0 {
		panic(fmt.Sprintf("soft: unsupported vertex format %v", attr.Format))
	}
	if attr.Stride <= 0 || attr.Stride%4 != 0 || attr.Offset%4 != 0 {
		panic(fmt.Sprintf("soft: misaligned attribute (stride %d, offset %d)", attr.Stride, attr.Offset))
	}
	c.attrs[slot] = attr
}

// BindTexture binds t to a texture unit; nil unbinds.
func (c *Context) BindTexture(unit int, t gfx.Texture) {
	if unit < 0 || unit >= maxTextureUnits {
		panic(fmt.Sprintf("soft: texture unit %d out of range", unit))
	}
	if t == nil {
		c.units[unit] = nil
		return
	}
	tex, ok := t.(*texture)
	if !ok || tex.pix == nil {
		panic("soft: bind of a texture that cannot be sampled")
	}
	c.units[unit] = tex
}

func (c *Context) setUniform(u gfx.Uniform, want wgsl.Kind, v []float32) {
	p := c.activeProgram()
	b, ok := p.bindings[u.Name]
	if !ok || b.Kind != want {
		panic(fmt.Sprintf("soft: uniform %q is not a declared %s of program %q", u.Name, kindName(want), p.label))
	}
	var slot [16]float32
	copy(slot[:], v)
	p.values[u.Name] = slot
}

// Uniform1f writes a scalar uniform of the active program.
func (c *Context) Uniform1f(u gfx.Uniform, v float32) {
	c.setUniform(u, wgsl.Value, []float32{v})
}

// Uniform2f writes a vec2 uniform of the active program.
func (c *Context) Uniform2f(u gfx.Uniform, v mgl32.Vec2) {
	c.setUniform(u, wgsl.Value, v[:])
}

// Uniform4f writes a vec4 uniform of the active program.
func (c *Context) Uniform4f(u gfx.Uniform, v mgl32.Vec4) {
	c.setUniform(u, wgsl.Value, v[:])
}

// UniformMat4 writes a column-major matrix uniform of the active program.
func (c *Context) UniformMat4(u gfx.Uniform, m mgl32.Mat4) {
	c.setUniform(u, wgsl.Value, m[:])
}

// UniformSampler points a texture uniform at a texture unit.
func (c *Context) UniformSampler(u gfx.Uniform, unit int) {
	p := c.activeProgram()
	b, ok := p.bindings[u.Name]
	if !ok || b.Kind != wgsl.Texture {
		panic(fmt.Sprintf("soft: uniform %q is not a declared texture of program %q", u.Name, p.label))
	}
	if unit < 0 || unit >= maxTextureUnits {
		panic(fmt.Sprintf("soft: texture unit %d out of range", unit))
	}
	p.units[u.Name] = unit
}

// SetDepthTest toggles the depth test.
func (c *Context) SetDepthTest(enable bool) { c.depthTest = enable }

// SetCullBack toggles back-face culling.
func (c *Context) SetCullBack(enable bool) { c.cullBack = enable }

// BeginFrame starts a frame.
func (c *Context) BeginFrame() {}

// EndFrame completes a frame. Work is executed eagerly, so there is
// nothing to submit.
func (c *Context) EndFrame() error {
	if c.destroyed {
		return gfx.ErrDestroyed
	}
	c.frames++
	return nil
}

// ReadPixels copies the color attachment of fb, or of the screen when fb
// is nil.
func (c *Context) ReadPixels(fb gfx.Framebuffer) (*image.RGBA, error) {
	f := c.screen
	if fb != nil {
		var ok bool
		if f, ok = fb.(*framebuffer); !ok {
			return nil, errors.New("soft: framebuffer from another context")
		}
	}
	if f.destroyed || f.color.destroyed {
		return nil, gfx.ErrDestroyed
	}
	img := image.NewRGBA(image.Rect(0, 0, f.color.width, f.color.height))
	copy(img.Pix, f.color.pix)
	return img, nil
}

// Destroy releases the context. Resources created from it must not be
// used afterwards.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.program = nil
	c.vertices = nil
	c.indices = nil
	c.units = [maxTextureUnits]*texture{}
	c.screen.color.Destroy()
	c.screen.depth.Destroy()
	rendergraph.Logger().Debug("soft: context destroyed", "frames", c.frames)
}

func (c *Context) activeProgram() *program {
	if c.program == nil {
		panic("soft: no active program")
	}
	if c.program.destroyed {
		panic(fmt.Sprintf("soft: program %q used after Destroy", c.program.label))
	}
	return c.program
}

func mustProgram(p gfx.Program) *program {
	prog, ok := p.(*program)
	if !ok {
		panic("soft: program from another context")
	}
	return prog
}

func mustBuffer(b gfx.Buffer, kind gfx.BufferKind) *buffer {
	if b == nil {
		return nil
	}
	buf, ok := b.(*buffer)
	if !ok {
		panic("soft: buffer from another context")
	}
	if buf.kind != kind {
		panic("soft: buffer bound to the wrong target")
	}
	if buf.destroyed {
		panic("soft: bind of destroyed buffer")
	}
	return buf
}

func kindName(k wgsl.Kind) string {
	switch k {
	case wgsl.Texture:
		return "texture"
	case wgsl.Sampler:
		return "sampler"
	default:
		return "value"
	}
}

func components(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4:
		return 4
	}
	return 0
}
