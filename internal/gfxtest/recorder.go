// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfxtest provides a gfx.Context that records calls instead of
// drawing, for tests of code layered on top of a context.
package gfxtest

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/internal/wgsl"
)

// Draw is one recorded draw call.
type Draw struct {
	Indexed bool
	First   int
	Count   int
	// Program is the label of the active program.
	Program string
}

// Recorder is a gfx.Context that reflects WGSL for name resolution and
// logs every state change.
type Recorder struct {
	// Calls lists calls in order, e.g. "UseProgram blur" or "DrawElements 36".
	Calls []string
	// Draws lists draw calls in order.
	Draws []Draw
	// Uniforms holds the last value written per uniform name.
	Uniforms map[string]any
	// Destroyed counts destroyed resources.
	Destroyed int

	// CompileErr, when set, fails every CompileShader call.
	CompileErr error

	width, height int
	program       *program
}

var _ gfx.Context = (*Recorder)(nil)

// New returns a recorder with a width x height surface.
func New(width, height int) *Recorder {
	return &Recorder{width: width, height: height, Uniforms: make(map[string]any)}
}

// Reset clears recorded calls and draws.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Draws = nil
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

type shader struct {
	r      *Recorder
	stage  gfx.Stage
	label  string
	module *wgsl.Module
}

func (s *shader) Stage() gfx.Stage { return s.stage }
func (s *shader) Label() string    { return s.label }
func (s *shader) Destroy()         { s.r.Destroyed++ }

type program struct {
	r        *Recorder
	label    string
	inputs   []wgsl.Input
	bindings []wgsl.Binding
}

func (p *program) Label() string { return p.label }
func (p *program) Destroy()      { p.r.Destroyed++ }

type buffer struct {
	r    *Recorder
	kind gfx.BufferKind
	size int
}

func (b *buffer) Kind() gfx.BufferKind { return b.kind }
func (b *buffer) Len() int             { return b.size }
func (b *buffer) Destroy()             { b.r.Destroyed++ }

type texture struct {
	r    *Recorder
	desc gfx.TextureDescriptor
}

func (t *texture) Width() int                     { return t.desc.Width }
func (t *texture) Height() int                    { return t.desc.Height }
func (t *texture) Format() gputypes.TextureFormat { return t.desc.Format }
func (t *texture) Destroy()                       { t.r.Destroyed++ }

// Label returns the descriptor label.
func (t *texture) Label() string { return t.desc.Label }

type framebuffer struct {
	r     *Recorder
	color *texture
}

func (f *framebuffer) Width() int  { return f.color.desc.Width }
func (f *framebuffer) Height() int { return f.color.desc.Height }
func (f *framebuffer) Destroy()    { f.r.Destroyed++ }

func (r *Recorder) Name() string        { return "recorder" }
func (r *Recorder) Size() (int, int)    { return r.width, r.height }
func (r *Recorder) BeginFrame()         { r.record("BeginFrame") }
func (r *Recorder) Destroy()            { r.record("Destroy") }
func (r *Recorder) SetDepthTest(b bool) { r.record("SetDepthTest %t", b) }
func (r *Recorder) SetCullBack(b bool)  { r.record("SetCullBack %t", b) }

func (r *Recorder) EndFrame() error {
	r.record("EndFrame")
	return nil
}

func (r *Recorder) CompileShader(stage gfx.Stage, src gfx.Source) (gfx.Shader, error) {
	if r.CompileErr != nil {
		return nil, &gfx.CompileError{Stage: stage, Label: src.Label, Log: r.CompileErr.Error()}
	}
	m, err := wgsl.Reflect(src.WGSL)
	if err != nil {
		return nil, &gfx.CompileError{Stage: stage, Label: src.Label, Log: err.Error()}
	}
	r.record("CompileShader %s %s", stage, src.Label)
	return &shader{r: r, stage: stage, label: src.Label, module: m}, nil
}

func (r *Recorder) LinkProgram(vs, fs gfx.Shader) (gfx.Program, error) {
	v, f := vs.(*shader), fs.(*shader)
	label := v.label + "+" + f.label
	merged, err := wgsl.Link(v.module, f.module)
	if err != nil {
		return nil, &gfx.LinkError{Label: label, Log: err.Error()}
	}
	r.record("LinkProgram %s", label)
	return &program{r: r, label: label, inputs: v.module.Inputs, bindings: merged}, nil
}

func (r *Recorder) AttributeLocation(p gfx.Program, name string) (int, error) {
	prog := p.(*program)
	for _, in := range prog.inputs {
		if in.Name == name {
			return in.Location, nil
		}
	}
	return -1, &gfx.NotFoundError{Kind: gfx.BindingAttribute, Name: name, Program: prog.label}
}

func (r *Recorder) UniformLocation(p gfx.Program, name string) (gfx.Uniform, error) {
	prog := p.(*program)
	for _, b := range prog.bindings {
		if b.Name != name || b.Kind == wgsl.Sampler {
			continue
		}
		u := gfx.Uniform{Name: name, Group: b.Group, Binding: b.Binding, Type: b.Type}
		if b.Kind == wgsl.Texture {
			u.Kind = gfx.UniformTexture
		}
		return u, nil
	}
	return gfx.Uniform{}, &gfx.NotFoundError{Kind: gfx.BindingUniform, Name: name, Program: prog.label}
}

func (r *Recorder) NewBuffer(kind gfx.BufferKind, data []byte) (gfx.Buffer, error) {
	r.record("NewBuffer %d %d", kind, len(data))
	return &buffer{r: r, kind: kind, size: len(data)}, nil
}

func (r *Recorder) NewTexture(desc gfx.TextureDescriptor) (gfx.Texture, error) {
	r.record("NewTexture %s %dx%d", desc.Label, desc.Width, desc.Height)
	return &texture{r: r, desc: desc}, nil
}

func (r *Recorder) UploadTexture(t gfx.Texture, img *image.RGBA) error {
	r.record("UploadTexture %s", t.(*texture).desc.Label)
	return nil
}

func (r *Recorder) NewFramebuffer(color, depth gfx.Texture) (gfx.Framebuffer, error) {
	c := color.(*texture)
	r.record("NewFramebuffer %s depth=%t", c.desc.Label, depth != nil)
	return &framebuffer{r: r, color: c}, nil
}

func (r *Recorder) UseProgram(p gfx.Program) {
	r.program = p.(*program)
	r.record("UseProgram %s", r.program.label)
}

func (r *Recorder) BindFramebuffer(fb gfx.Framebuffer) {
	if fb == nil {
		r.record("BindFramebuffer screen")
		return
	}
	r.record("BindFramebuffer %s", fb.(*framebuffer).color.desc.Label)
}

func (r *Recorder) Clear(mask gfx.ClearMask, color [4]float32, depth float32) {
	r.record("Clear %d", mask)
}

func (r *Recorder) BindVertexBuffer(b gfx.Buffer) { r.record("BindVertexBuffer %d", b.Len()) }
func (r *Recorder) BindIndexBuffer(b gfx.Buffer)  { r.record("BindIndexBuffer %d", b.Len()) }

func (r *Recorder) VertexAttribute(slot int, a gfx.VertexAttribute) {
	r.record("VertexAttribute %d stride=%d offset=%d", slot, a.Stride, a.Offset)
}

func (r *Recorder) BindTexture(unit int, t gfx.Texture) {
	label := "nil"
	if t != nil {
		label = t.(*texture).desc.Label
	}
	r.record("BindTexture %d %s", unit, label)
}

func (r *Recorder) Uniform1f(u gfx.Uniform, v float32)      { r.Uniforms[u.Name] = v }
func (r *Recorder) Uniform2f(u gfx.Uniform, v mgl32.Vec2)   { r.Uniforms[u.Name] = v }
func (r *Recorder) Uniform4f(u gfx.Uniform, v mgl32.Vec4)   { r.Uniforms[u.Name] = v }
func (r *Recorder) UniformMat4(u gfx.Uniform, m mgl32.Mat4) { r.Uniforms[u.Name] = m }
func (r *Recorder) UniformSampler(u gfx.Uniform, unit int)  { r.Uniforms[u.Name] = unit }

func (r *Recorder) DrawArrays(first, count int) {
	r.record("DrawArrays %d %d", first, count)
	r.Draws = append(r.Draws, Draw{First: first, Count: count, Program: r.activeLabel()})
}

func (r *Recorder) DrawElements(count int) {
	r.record("DrawElements %d", count)
	r.Draws = append(r.Draws, Draw{Indexed: true, Count: count, Program: r.activeLabel()})
}

func (r *Recorder) ReadPixels(fb gfx.Framebuffer) (*image.RGBA, error) {
	w, h := r.width, r.height
	if fb != nil {
		w, h = fb.Width(), fb.Height()
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (r *Recorder) activeLabel() string {
	if r.program == nil {
		return ""
	}
	return r.program.label
}
