// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsl

import (
	"errors"
	"testing"
)

const testVertex = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

// @group(9) @binding(9) var<uniform> commented: f32;
@group(0) @binding(0) var<uniform> u_model: mat4x4<f32>;
@group(0) @binding(1) var<uniform> u_time: f32;

@vertex
fn vs_main(@location(1) a_uv: vec2<f32>, @location(0) a_position: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_model * vec4<f32>(a_position, 1.0);
    out.uv = a_uv;
    return out;
}
`

const testFragment = `
@group(0) @binding(1) var<uniform> u_time: f32;
@group(0) @binding(2) var u_image: texture_2d<f32>;
@group(0) @binding(3) var u_image_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_image, u_image_sampler, uv) * u_time;
}
`

func TestReflectVertex(t *testing.T) {
	m, err := Reflect(testVertex)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if m.Stage != Vertex || m.Entry != "vs_main" {
		t.Errorf("entry = %s %s, want vertex vs_main", m.Stage, m.Entry)
	}
	if len(m.Inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(m.Inputs))
	}
	if m.Inputs[0].Name != "a_position" || m.Inputs[0].Type != "vec3<f32>" {
		t.Errorf("inputs[0] = %+v, want a_position vec3<f32> sorted first", m.Inputs[0])
	}
	if len(m.Bindings) != 2 {
		t.Fatalf("bindings = %+v, want 2 (commented binding ignored)", m.Bindings)
	}
	b, ok := m.Binding("u_model")
	if !ok || b.Kind != Value || b.Size() != 64 {
		t.Errorf("u_model = %+v", b)
	}
}

func TestReflectFragment(t *testing.T) {
	m, err := Reflect(testFragment)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if m.Stage != Fragment || len(m.Inputs) != 0 {
		t.Errorf("fragment module = %+v", m)
	}
	tex, _ := m.Binding("u_image")
	smp, _ := m.Binding("u_image_sampler")
	if tex.Kind != Texture || smp.Kind != Sampler {
		t.Errorf("kinds = %v %v", tex.Kind, smp.Kind)
	}
}

func TestReflectErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no entry", `fn helper() -> f32 { return 1.0; }`, ErrNoEntryPoint},
		{"two entries", testVertex + "\n@fragment fn other() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }", ErrMultipleEntryPoints},
		{"unpaired texture", `
@group(0) @binding(0) var tex: texture_2d<f32>;
@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`, nil},
		{"slot clash", `
@group(0) @binding(0) var<uniform> a: f32;
@group(0) @binding(0) var<uniform> b: f32;
@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(a + b); }`, nil},
		{"location clash", `
@vertex fn main(@location(0) a: vec2<f32>, @location(0) b: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(a + b, 0.0, 1.0);
}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reflect(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLink(t *testing.T) {
	vs, err := Reflect(testVertex)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := Reflect(testFragment)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := Link(vs, fs)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	want := []string{"u_model", "u_time", "u_image", "u_image_sampler"}
	if len(merged) != len(want) {
		t.Fatalf("merged = %+v", merged)
	}
	for i, name := range want {
		if merged[i].Name != name {
			t.Errorf("merged[%d] = %s, want %s", i, merged[i].Name, name)
		}
	}

	if _, err := Link(fs, vs); err == nil {
		t.Error("Link with swapped stages should fail")
	}
}

func TestLinkConflicts(t *testing.T) {
	vs, _ := Reflect(testVertex)
	clash, err := Reflect(`
@group(0) @binding(0) var<uniform> u_other: f32;
@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(u_other); }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Link(vs, clash); err == nil {
		t.Error("distinct names on one slot should fail to link")
	}

	retyped, err := Reflect(`
@group(0) @binding(1) var<uniform> u_time: vec4<f32>;
@fragment fn main() -> @location(0) vec4<f32> { return u_time; }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Link(vs, retyped); err == nil {
		t.Error("shared name with different type should fail to link")
	}
}

func TestReflectRejectsUnresolvedIdentifier(t *testing.T) {
	_, err := Reflect(`
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(LIGHT_I, 0.0, 0.0, 1.0);
}
`)
	if err == nil {
		t.Fatal("expected an error for an undefined identifier")
	}
}

func TestReflectInputStruct(t *testing.T) {
	m, err := Reflect(`
struct VertexInput {
    @location(2) normal: vec3<f32>,
    @location(0) position: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput, @builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position + in.normal * f32(index), 1.0);
}
`)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	want := []Input{
		{Location: 0, Name: "position", Type: "vec3<f32>"},
		{Location: 2, Name: "normal", Type: "vec3<f32>"},
	}
	if len(m.Inputs) != len(want) {
		t.Fatalf("inputs = %+v, want %+v", m.Inputs, want)
	}
	for i := range want {
		if m.Inputs[i] != want[i] {
			t.Errorf("inputs[%d] = %+v, want %+v", i, m.Inputs[i], want[i])
		}
	}
}

func TestReflectResourceTypes(t *testing.T) {
	tests := []struct {
		name    string
		decl    string
		wantErr bool
		kind    Kind
		typ     string
	}{
		{"scalar", "var<uniform> r: f32;", false, Value, "f32"},
		{"vector", "var<uniform> r: vec2<f32>;", false, Value, "vec2<f32>"},
		{"matrix", "var<uniform> r: mat4x4<f32>;", false, Value, "mat4x4<f32>"},
		{"matrix3", "var<uniform> r: mat3x3<f32>;", true, Value, ""},
		{"storage", "var<storage, read> r: array<f32>;", true, Value, ""},
		{"depth texture", "var r: texture_depth_2d;", true, Texture, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Reflect("@group(0) @binding(0) " + tt.decl + `
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Reflect: %v", err)
			}
			b, ok := m.Binding("r")
			if !ok || b.Kind != tt.kind || b.Type != tt.typ {
				t.Errorf("binding = %+v, want kind %v type %s", b, tt.kind, tt.typ)
			}
		})
	}
}
