// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgsl reflects the interface of WGSL shader stages: the entry
// point, vertex inputs and resource bindings.
//
// Sources are parsed and lowered to naga IR, so a stage that references
// an undefined identifier or type fails reflection even when no
// validator runs. Vertex inputs may be @location parameters of the entry
// point or @location members of an input struct. Every resource is a
// module-scope @group/@binding variable.
package wgsl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Stage is the pipeline stage of an entry point.
type Stage string

const (
	// Vertex marks an @vertex entry point.
	Vertex Stage = "vertex"
	// Fragment marks an @fragment entry point.
	Fragment Stage = "fragment"
)

// Kind classifies a resource binding.
type Kind uint8

const (
	// Value is a var<uniform> binding.
	Value Kind = iota
	// Texture is a texture_2d binding.
	Texture
	// Sampler is a sampler binding.
	Sampler
)

// SamplerSuffix names the sampler paired with a texture binding:
// texture "u_image" is sampled through "u_image_sampler".
const SamplerSuffix = "_sampler"

// Input is one vertex input.
type Input struct {
	Location int
	Name     string
	Type     string
}

// Binding is one module-scope resource.
type Binding struct {
	Group   int
	Binding int
	Name    string
	Type    string
	Kind    Kind
}

// Size returns the uniform buffer size of a value binding in bytes,
// rounded up to 16. It returns 0 for unknown types.
func (b Binding) Size() int {
	n := 0
	switch b.Type {
	case "f32", "i32", "u32":
		n = 4
	case "vec2<f32>":
		n = 8
	case "vec3<f32>":
		n = 12
	case "vec4<f32>":
		n = 16
	case "mat4x4<f32>":
		n = 64
	default:
		return 0
	}
	return (n + 15) &^ 15
}

// Module is the reflected interface of one shader stage.
type Module struct {
	Stage    Stage
	Entry    string
	Inputs   []Input
	Bindings []Binding
}

// Binding returns the binding called name.
func (m *Module) Binding(name string) (Binding, bool) {
	for _, b := range m.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

var (
	// ErrNoEntryPoint is returned when a source declares no entry point.
	ErrNoEntryPoint = errors.New("wgsl: no entry point")

	// ErrMultipleEntryPoints is returned when a source declares more than one.
	ErrMultipleEntryPoints = errors.New("wgsl: more than one entry point")
)

// Reflect parses and lowers a single-stage WGSL source and returns its
// interface.
func Reflect(src string) (*Module, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("wgsl: %w", err)
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("wgsl: lowering error: %w", err)
	}

	switch {
	case len(mod.EntryPoints) == 0:
		return nil, ErrNoEntryPoint
	case len(mod.EntryPoints) > 1:
		return nil, ErrMultipleEntryPoints
	}
	ep := &mod.EntryPoints[0]
	m := &Module{Entry: ep.Name}
	switch ep.Stage {
	case ir.StageVertex:
		m.Stage = Vertex
	case ir.StageFragment:
		m.Stage = Fragment
	default:
		return nil, fmt.Errorf("wgsl: entry point %q has unsupported stage %d", ep.Name, ep.Stage)
	}

	if m.Stage == Vertex {
		if m.Inputs, err = vertexInputs(mod, ep); err != nil {
			return nil, err
		}
	}
	if m.Bindings, err = resources(mod); err != nil {
		return nil, err
	}

	for _, b := range m.Bindings {
		if b.Kind != Texture {
			continue
		}
		if s, ok := m.Binding(b.Name + SamplerSuffix); !ok || s.Kind != Sampler {
			return nil, fmt.Errorf("wgsl: texture %q has no sampler %q", b.Name, b.Name+SamplerSuffix)
		}
	}
	return m, nil
}

// vertexInputs collects the @location arguments of ep, looking through
// input structs, sorted by location.
func vertexInputs(mod *ir.Module, ep *ir.EntryPoint) ([]Input, error) {
	var inputs []Input
	seen := make(map[int]string)
	add := func(b *ir.Binding, name string, typ ir.TypeHandle) error {
		if b == nil {
			return nil
		}
		loc, ok := (*b).(ir.LocationBinding)
		if !ok {
			return nil
		}
		l := int(loc.Location)
		if prev, dup := seen[l]; dup {
			return fmt.Errorf("wgsl: inputs %q and %q share location %d", prev, name, l)
		}
		seen[l] = name
		inputs = append(inputs, Input{Location: l, Name: name, Type: typeName(mod, typ)})
		return nil
	}

	for _, arg := range ep.Function.Arguments {
		if arg.Binding != nil {
			if err := add(arg.Binding, arg.Name, arg.Type); err != nil {
				return nil, err
			}
			continue
		}
		st, ok := mod.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, member := range st.Members {
			if err := add(member.Binding, member.Name, member.Type); err != nil {
				return nil, err
			}
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs, nil
}

// resources classifies every module-scope variable with a resource
// binding.
func resources(mod *ir.Module) ([]Binding, error) {
	var out []Binding
	slots := make(map[[2]int]string)
	for _, gv := range mod.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		bd := Binding{
			Group:   int(gv.Binding.Group),
			Binding: int(gv.Binding.Binding),
			Name:    gv.Name,
			Type:    typeName(mod, gv.Type),
		}
		inner := mod.Types[gv.Type].Inner
		switch {
		case gv.Space == ir.SpaceUniform:
			bd.Kind = Value
			if bd.Size() == 0 {
				return nil, fmt.Errorf("wgsl: uniform %q has unsupported type %s", bd.Name, bd.Type)
			}
		case gv.Space == ir.SpaceHandle && isTexture2D(inner):
			bd.Kind = Texture
		case gv.Space == ir.SpaceHandle && isSampler(inner):
			bd.Kind = Sampler
		default:
			return nil, fmt.Errorf("wgsl: unsupported resource %q of type %s", bd.Name, bd.Type)
		}
		slot := [2]int{bd.Group, bd.Binding}
		if prev, dup := slots[slot]; dup {
			return nil, fmt.Errorf("wgsl: %q and %q share @group(%d) @binding(%d)", prev, bd.Name, bd.Group, bd.Binding)
		}
		slots[slot] = bd.Name
		out = append(out, bd)
	}
	return out, nil
}

func isTexture2D(t ir.TypeInner) bool {
	img, ok := t.(ir.ImageType)
	return ok && img.Dim == ir.Dim2D && !img.Arrayed && !img.Multisampled &&
		img.Class == ir.ImageClassSampled && img.SampledKind == ir.ScalarFloat
}

func isSampler(t ir.TypeInner) bool {
	s, ok := t.(ir.SamplerType)
	return ok && !s.Comparison
}

// typeName spells a type the way WGSL source does, e.g. "vec3<f32>".
func typeName(mod *ir.Module, h ir.TypeHandle) string {
	if int(h) >= len(mod.Types) {
		return "?"
	}
	t := mod.Types[h]
	switch inner := t.Inner.(type) {
	case ir.ScalarType:
		return scalarName(inner)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", inner.Size, scalarName(inner.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", inner.Columns, inner.Rows, scalarName(inner.Scalar))
	case ir.ImageType:
		if isTexture2D(inner) {
			return "texture_2d<f32>"
		}
		return "texture"
	case ir.SamplerType:
		if inner.Comparison {
			return "sampler_comparison"
		}
		return "sampler"
	}
	if t.Name != "" {
		return t.Name
	}
	return "?"
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarFloat:
		if s.Width == 2 {
			return "f16"
		}
		return "f32"
	case ir.ScalarSint:
		return "i32"
	case ir.ScalarUint:
		return "u32"
	case ir.ScalarBool:
		return "bool"
	default:
		return "?"
	}
}

// Link merges the bindings of a vertex and a fragment stage into the
// layout of one program. A name declared by both stages must agree on
// slot and type; distinct names must not share a slot.
func Link(vs, fs *Module) ([]Binding, error) {
	if vs.Stage != Vertex {
		return nil, fmt.Errorf("wgsl: %s entry %q used as vertex stage", vs.Stage, vs.Entry)
	}
	if fs.Stage != Fragment {
		return nil, fmt.Errorf("wgsl: %s entry %q used as fragment stage", fs.Stage, fs.Entry)
	}

	merged := append([]Binding(nil), vs.Bindings...)
	for _, b := range fs.Bindings {
		shared := false
		for _, v := range vs.Bindings {
			sameSlot := v.Group == b.Group && v.Binding == b.Binding
			switch {
			case v.Name == b.Name && (!sameSlot || v.Type != b.Type):
				return nil, fmt.Errorf("wgsl: %q declared differently by vertex and fragment stages", b.Name)
			case v.Name == b.Name:
				shared = true
			case sameSlot:
				return nil, fmt.Errorf("wgsl: %q and %q share @group(%d) @binding(%d)", v.Name, b.Name, b.Group, b.Binding)
			}
		}
		if !shared {
			merged = append(merged, b)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Group != merged[j].Group {
			return merged[i].Group < merged[j].Group
		}
		return merged[i].Binding < merged[j].Binding
	})
	return merged, nil
}
