// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blur

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/mesh"
	"github.com/gogpu/rendergraph/shader"
	"github.com/gogpu/rendergraph/texture"
)

// Uniform names of a blur program.
const (
	RadiusFactor = "blur_radius_factor"
	Image        = "u_image"
)

// Axis is the direction a pass blurs along.
type Axis uint8

const (
	// Horizontal blurs along texture x.
	Horizontal Axis = iota
	// Vertical blurs along texture y.
	Vertical
)

// String returns "horizontal" or "vertical".
func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func (a Axis) dir() mgl32.Vec2 {
	if a == Vertical {
		return mgl32.Vec2{0, 1}
	}
	return mgl32.Vec2{1, 0}
}

var fragmentTemplate = template.Must(template.New("blur").Funcs(template.FuncMap{
	"f": wgslFloat,
}).Parse(`
@group(0) @binding(0) var<uniform> blur_radius_factor: f32;
@group(0) @binding(1) var u_image: texture_2d<f32>;
@group(0) @binding(2) var u_image_sampler: sampler;

// {{.Axis}} blur, {{len .Taps}} taps.
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let size = vec2<f32>(textureDimensions(u_image));
    let texel = vec2<f32>({{f .Dir.X}}, {{f .Dir.Y}}) * blur_radius_factor / size;
    var color = vec4<f32>(0.0);
{{- range .Taps}}
    color += textureSample(u_image, u_image_sampler, uv + texel * {{f .Offset}}) * {{f .Weight}};
{{- end}}
    return color;
}
`))

// wgslFloat formats v as an abstract-float literal.
func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FragmentWGSL returns the generated fragment source of a pass.
func FragmentWGSL(axis Axis, k Kernel) (string, error) {
	var b strings.Builder
	err := fragmentTemplate.Execute(&b, struct {
		Axis Axis
		Dir  mgl32.Vec2
		Taps []Tap
	}{axis, axis.dir(), k.Taps()})
	if err != nil {
		return "", fmt.Errorf("blur: generate %s source: %w", axis, err)
	}
	return b.String(), nil
}

// hostFragment runs the same taps on the host.
func hostFragment(axis Axis, taps []Tap) gfx.FragmentFunc {
	dir := axis.dir()
	return func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
		uv := mgl32.Vec2{in.Varyings[0], in.Varyings[1]}
		size := env.TextureSize(Image)
		factor := env.Float(RadiusFactor)
		var texel mgl32.Vec2
		if size[0] > 0 && size[1] > 0 {
			texel = mgl32.Vec2{dir[0] * factor / size[0], dir[1] * factor / size[1]}
		}
		var color mgl32.Vec4
		for _, t := range taps {
			color = color.Add(env.Sample(Image, uv.Add(texel.Mul(t.Offset))).Mul(t.Weight))
		}
		return color
	}
}

// Pass is one direction of a separable blur: a compiled program drawing
// a screen quad that samples its input along the axis.
type Pass struct {
	axis    Axis
	kernel  Kernel
	program *shader.Program
	owned   bool
}

// Spec returns the program of a pass along axis with kernel k.
func Spec(axis Axis, k Kernel) (shader.Spec, error) {
	if len(k)%2 == 0 {
		return shader.Spec{}, fmt.Errorf("blur: kernel of even length %d", len(k))
	}
	src, err := FragmentWGSL(axis, k)
	if err != nil {
		return shader.Spec{}, err
	}
	label := "blur_" + axis.String()
	return shader.Spec{
		Label:  label,
		Vertex: shader.ScreenVertex(),
		Fragment: gfx.Source{
			Label: label + "_fs",
			WGSL:  src,
			Host:  hostFragment(axis, k.Taps()),
		},
		Attributes: []string{mesh.Position},
		Uniforms:   []string{RadiusFactor, Image},
	}, nil
}

// NewPass compiles the blur program for axis and k. The pass owns the
// program. Errors match gfx.ErrSetup.
func NewPass(ctx gfx.Context, axis Axis, k Kernel) (*Pass, error) {
	spec, err := Spec(axis, k)
	if err != nil {
		return nil, err
	}
	prog, err := shader.New(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &Pass{axis: axis, kernel: k, program: prog, owned: true}, nil
}

// NewCachedPass builds the pass through programs, which keeps ownership
// of the program.
func NewCachedPass(programs *shader.Cache, axis Axis, k Kernel) (*Pass, error) {
	spec, err := Spec(axis, k)
	if err != nil {
		return nil, err
	}
	prog, err := programs.Get(spec)
	if err != nil {
		return nil, err
	}
	return &Pass{axis: axis, kernel: k, program: prog}, nil
}

// Axis returns the blur direction.
func (p *Pass) Axis() Axis { return p.axis }

// Kernel returns the weights the pass was built with.
func (p *Pass) Kernel() Kernel { return p.kernel }

// Program returns the compiled program.
func (p *Pass) Program() *shader.Program { return p.program }

// Draw blurs input into the bound target. factor scales tap offsets; 0
// samples the center texel only and copies input.
func (p *Pass) Draw(quad *mesh.Mesh, input *texture.Texture, factor float32) {
	p.program.Use()
	quad.Bind(p.program)
	quad.Draw(p.program,
		shader.Float(RadiusFactor, factor),
		shader.Sampler(Image, 0, input.Handle()),
	)
}

// Destroy releases the program unless a cache owns it.
func (p *Pass) Destroy() {
	if p.owned {
		p.program.Destroy()
	}
}
