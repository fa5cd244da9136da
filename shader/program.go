// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader builds linked shader programs and resolves their
// attribute and uniform names once, at creation.
package shader

import (
	"fmt"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
)

// Spec describes a program: both stage sources and every binding name
// the program's users will look up.
type Spec struct {
	// Label names the program in diagnostics and keys the Cache.
	Label string

	Vertex   gfx.Source
	Fragment gfx.Source

	// Attributes and Uniforms must all resolve, or New fails.
	Attributes []string
	Uniforms   []string
}

// Program is a linked program with resolved binding slots. Slots are
// stable for the program's lifetime.
type Program struct {
	ctx      gfx.Context
	label    string
	handle   gfx.Program
	shaders  [2]gfx.Shader
	attrs    map[string]int
	order    []string
	uniforms map[string]gfx.Uniform
}

// New compiles both stages, links them and resolves every declared name.
// Errors match gfx.ErrSetup; compile and link errors carry the driver
// diagnostic unmodified.
func New(ctx gfx.Context, spec Spec) (*Program, error) {
	vs, err := ctx.CompileShader(gfx.StageVertex, spec.Vertex)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", spec.Label, err)
	}
	fs, err := ctx.CompileShader(gfx.StageFragment, spec.Fragment)
	if err != nil {
		vs.Destroy()
		return nil, fmt.Errorf("shader %q: %w", spec.Label, err)
	}
	handle, err := ctx.LinkProgram(vs, fs)
	if err != nil {
		vs.Destroy()
		fs.Destroy()
		return nil, fmt.Errorf("shader %q: %w", spec.Label, err)
	}

	p := &Program{
		ctx:      ctx,
		label:    spec.Label,
		handle:   handle,
		shaders:  [2]gfx.Shader{vs, fs},
		attrs:    make(map[string]int, len(spec.Attributes)),
		uniforms: make(map[string]gfx.Uniform, len(spec.Uniforms)),
	}
	for _, name := range spec.Attributes {
		loc, err := ctx.AttributeLocation(handle, name)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("shader %q: %w", spec.Label, err)
		}
		if _, dup := p.attrs[name]; !dup {
			p.order = append(p.order, name)
		}
		p.attrs[name] = loc
	}
	for _, name := range spec.Uniforms {
		u, err := ctx.UniformLocation(handle, name)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("shader %q: %w", spec.Label, err)
		}
		p.uniforms[name] = u
	}

	rendergraph.Logger().Debug("shader: program linked",
		"label", spec.Label, "attributes", len(p.attrs), "uniforms", len(p.uniforms))
	return p, nil
}

// Label returns the program label.
func (p *Program) Label() string { return p.label }

// Handle returns the underlying context program.
func (p *Program) Handle() gfx.Program { return p.handle }

// Use makes the program active on its context.
func (p *Program) Use() {
	p.ctx.UseProgram(p.handle)
}

// Attribute returns the slot of a declared attribute. It panics for
// undeclared names: sources and bindings are out of sync.
func (p *Program) Attribute(name string) int {
	loc, ok := p.attrs[name]
	if !ok {
		panic(fmt.Sprintf("shader %q: attribute %q was not declared", p.label, name))
	}
	return loc
}

// HasAttribute reports whether name was declared.
func (p *Program) HasAttribute(name string) bool {
	_, ok := p.attrs[name]
	return ok
}

// Attributes returns the declared attribute names in declaration order.
func (p *Program) Attributes() []string {
	return append([]string(nil), p.order...)
}

// Uniform returns the slot of a declared uniform. It panics for
// undeclared names.
func (p *Program) Uniform(name string) gfx.Uniform {
	u, ok := p.uniforms[name]
	if !ok {
		panic(fmt.Sprintf("shader %q: uniform %q was not declared", p.label, name))
	}
	return u
}

// Set writes uniform values. The program must be active.
func (p *Program) Set(values ...Value) {
	for _, v := range values {
		v.apply(p)
	}
}

// Destroy releases the program and its shader stages.
func (p *Program) Destroy() {
	if p.handle == nil {
		return
	}
	p.handle.Destroy()
	for _, s := range p.shaders {
		s.Destroy()
	}
	p.handle = nil
}
