// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/mesh"
	"github.com/gogpu/rendergraph/shader"
)

// Uniform names used by the scene programs.
const (
	FlatColor = "u_color"
	Angle     = "u_angle"
	MVP       = "u_mvp"
	Model     = "u_model"
	ColorMap  = "u_color_map"
	NormalMap = "u_normal_map"
	Image     = "u_image"
)

// FlatTriangle draws 2D positions in a single uniform color.
func FlatTriangle() shader.Spec {
	return shader.Spec{
		Label: "flat",
		Vertex: gfx.Source{Label: "flat_vs", WGSL: `
@vertex
fn vs_main(@location(0) a_position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(a_position, 0.0, 1.0);
}
`, Host: gfx.VertexFunc(func(_ gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
			return gfx.VertexOutput{Position: mgl32.Vec4{in[0][0], in[0][1], 0, 1}}
		})},
		Fragment: gfx.Source{Label: "flat_fs", WGSL: `
@group(0) @binding(0) var<uniform> u_color: vec4<f32>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u_color;
}
`, Host: gfx.FragmentFunc(func(env gfx.Env, _ gfx.FragmentInput) mgl32.Vec4 {
			return env.Vec4(FlatColor)
		})},
		Attributes: []string{mesh.Position},
		Uniforms:   []string{FlatColor},
	}
}

// SpinningTriangle draws vertex-colored 2D positions rotated
// counter-clockwise by the Angle uniform.
func SpinningTriangle() shader.Spec {
	return shader.Spec{
		Label: "spinning",
		Vertex: gfx.Source{Label: "spinning_vs", WGSL: `
@group(0) @binding(0) var<uniform> u_angle: f32;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(@location(0) a_position: vec2<f32>, @location(1) a_color: vec3<f32>) -> VertexOutput {
    let c = cos(u_angle);
    let s = sin(u_angle);
    let rotation = mat2x2<f32>(c, s, -s, c);
    var out: VertexOutput;
    out.position = vec4<f32>(rotation * a_position, 0.0, 1.0);
    out.color = a_color;
    return out;
}
`, Host: gfx.VertexFunc(func(env gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
			a := env.Float(Angle)
			c, s := math32.Cos(a), math32.Sin(a)
			p, col := in[0], in[1]
			return gfx.VertexOutput{
				Position: mgl32.Vec4{c*p[0] - s*p[1], s*p[0] + c*p[1], 0, 1},
				Varyings: []float32{col[0], col[1], col[2]},
			}
		})},
		Fragment:   vertexColorFragment("spinning_fs"),
		Attributes: []string{mesh.Position, mesh.Color},
		Uniforms:   []string{Angle},
	}
}

// ColorCube transforms 3D positions by the MVP uniform and shades them in
// their vertex color.
func ColorCube() shader.Spec {
	return shader.Spec{
		Label: "color_cube",
		Vertex: gfx.Source{Label: "color_cube_vs", WGSL: `
@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(@location(0) a_position: vec3<f32>, @location(1) a_color: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_mvp * vec4<f32>(a_position, 1.0);
    out.color = a_color;
    return out;
}
`, Host: gfx.VertexFunc(func(env gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
			p, col := in[0], in[1]
			return gfx.VertexOutput{
				Position: env.Mat4(MVP).Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1}),
				Varyings: []float32{col[0], col[1], col[2]},
			}
		})},
		Fragment:   vertexColorFragment("color_cube_fs"),
		Attributes: []string{mesh.Position, mesh.Color},
		Uniforms:   []string{MVP},
	}
}

func vertexColorFragment(label string) gfx.Source {
	return gfx.Source{Label: label, WGSL: `
@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color, 1.0);
}
`, Host: gfx.FragmentFunc(func(_ gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
		v := in.Varyings
		return mgl32.Vec4{v[0], v[1], v[2], 1}
	})}
}

// Lighting selects the shading of NormalMappedCube. The light is a
// point light of uniform gray intensity plus a constant ambient term of
// 0.1.
type Lighting struct {
	Position  mgl32.Vec3
	Intensity float32

	// Split shades the half-space x < 0 with the interpolated surface
	// normal and x >= 0 with the normal map, for comparison. Ambient is
	// then folded into the light color.
	Split bool
}

// SplitLighting compares flat and mapped normals side by side.
var SplitLighting = Lighting{Position: mgl32.Vec3{1, 1, 0}, Intensity: 0.75, Split: true}

// BlurLighting lights the cube of the blur scene.
var BlurLighting = Lighting{Position: mgl32.Vec3{2, 2, 0}, Intensity: 0.8}

const normalMappedVertexWGSL = `
@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;
@group(0) @binding(1) var<uniform> u_model: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) world: vec3<f32>,
    @location(2) normal: vec3<f32>,
    @location(3) tangent: vec3<f32>,
};

@vertex
fn vs_main(
    @location(0) a_position: vec3<f32>,
    @location(1) a_uv: vec2<f32>,
    @location(2) a_normal: vec3<f32>,
    @location(3) a_tangent: vec3<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_mvp * vec4<f32>(a_position, 1.0);
    out.uv = a_uv;
    out.world = (u_model * vec4<f32>(a_position, 1.0)).xyz;
    out.normal = (u_model * vec4<f32>(a_normal, 0.0)).xyz;
    out.tangent = (u_model * vec4<f32>(a_tangent, 0.0)).xyz;
    return out;
}
`

var normalMappedFragment = template.Must(template.New("normal_mapped").Funcs(template.FuncMap{
	"f": wgslFloat,
}).Parse(`
@group(0) @binding(2) var u_color_map: texture_2d<f32>;
@group(0) @binding(3) var u_color_map_sampler: sampler;
@group(0) @binding(4) var u_normal_map: texture_2d<f32>;
@group(0) @binding(5) var u_normal_map_sampler: sampler;

@fragment
fn fs_main(
    @location(0) uv: vec2<f32>,
    @location(1) world: vec3<f32>,
    @location(2) normal: vec3<f32>,
    @location(3) tangent: vec3<f32>,
) -> @location(0) vec4<f32> {
    let rgba = textureSample(u_color_map, u_color_map_sampler, uv);
    let base = mix(vec3<f32>(1.0), rgba.rgb, rgba.a);

    let n = normalize(normal);
    let t = normalize(tangent);
    let b = cross(normal, tangent);
    let m = 2.0 * textureSample(u_normal_map, u_normal_map_sampler, uv).xyz - vec3<f32>(1.0);
    let bumped = mat3x3<f32>(t, b, n) * vec3<f32>(-m.x, -m.y, m.z);

    let to_light = normalize(vec3<f32>({{f .Position.X}}, {{f .Position.Y}}, {{f .Position.Z}}) - world);
    let diffuse = clamp(dot(to_light, bumped), 0.0, 1.0);
{{- if .Split}}
    let flat_diffuse = clamp(dot(to_light, n), 0.0, 1.0);
    let d = mix(flat_diffuse, diffuse, step(0.0, world.x));
    return vec4<f32>(d * ({{f .Intensity}} + 0.1) * base, 1.0);
{{- else}}
    return vec4<f32>((diffuse * {{f .Intensity}} + 0.1) * base, 1.0);
{{- end}}
}
`))

// NormalMappedCube shades the textured cube with a color map and a
// tangent-space normal map under light.
func NormalMappedCube(light Lighting) shader.Spec {
	return shader.Spec{
		Label:    "normal_mapped",
		Vertex:   gfx.Source{Label: "normal_mapped_vs", WGSL: normalMappedVertexWGSL, Host: normalMappedVertex},
		Fragment: gfx.Source{Label: "normal_mapped_fs", WGSL: generate(normalMappedFragment, light), Host: normalMappedHost(light)},
		Attributes: []string{
			mesh.Position, mesh.UV, mesh.Normal, mesh.Tangent,
		},
		Uniforms: []string{MVP, Model, ColorMap, NormalMap},
	}
}

var normalMappedVertex gfx.VertexFunc = func(env gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
	mvp, model := env.Mat4(MVP), env.Mat4(Model)
	p, uv, n, t := in[0], in[1], in[2], in[3]
	pos := mgl32.Vec4{p[0], p[1], p[2], 1}
	world := model.Mul4x1(pos)
	normal := model.Mul4x1(mgl32.Vec4{n[0], n[1], n[2], 0})
	tangent := model.Mul4x1(mgl32.Vec4{t[0], t[1], t[2], 0})
	return gfx.VertexOutput{
		Position: mvp.Mul4x1(pos),
		Varyings: []float32{
			uv[0], uv[1],
			world[0], world[1], world[2],
			normal[0], normal[1], normal[2],
			tangent[0], tangent[1], tangent[2],
		},
	}
}

func normalMappedHost(light Lighting) gfx.FragmentFunc {
	return func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
		v := in.Varyings
		uv := mgl32.Vec2{v[0], v[1]}
		world := mgl32.Vec3{v[2], v[3], v[4]}
		normal := mgl32.Vec3{v[5], v[6], v[7]}
		tangent := mgl32.Vec3{v[8], v[9], v[10]}

		base := overWhite(env.Sample(ColorMap, uv))

		n := normalize(normal)
		t := normalize(tangent)
		b := normal.Cross(tangent)
		m := env.Sample(NormalMap, uv)
		mapped := mgl32.Vec3{1 - 2*m[0], 1 - 2*m[1], 2*m[2] - 1}
		bumped := t.Mul(mapped[0]).Add(b.Mul(mapped[1])).Add(n.Mul(mapped[2]))

		toLight := normalize(light.Position.Sub(world))
		diffuse := mgl32.Clamp(toLight.Dot(bumped), 0, 1)

		var rgb mgl32.Vec3
		if light.Split {
			d := mgl32.Clamp(toLight.Dot(n), 0, 1)
			if world[0] >= 0 {
				d = diffuse
			}
			rgb = base.Mul(d * (light.Intensity + 0.1))
		} else {
			rgb = base.Mul(diffuse*light.Intensity + 0.1)
		}
		return rgb.Vec4(1)
	}
}

// TexturedCube shades the cube in its color map with no lighting.
// Transparent texels blend toward white.
func TexturedCube() shader.Spec {
	return shader.Spec{
		Label: "textured_cube",
		Vertex: gfx.Source{Label: "textured_cube_vs", WGSL: `
@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@location(0) a_position: vec3<f32>, @location(1) a_uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_mvp * vec4<f32>(a_position, 1.0);
    out.uv = a_uv;
    return out;
}
`, Host: gfx.VertexFunc(func(env gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
			p, uv := in[0], in[1]
			return gfx.VertexOutput{
				Position: env.Mat4(MVP).Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1}),
				Varyings: []float32{uv[0], uv[1]},
			}
		})},
		Fragment: gfx.Source{Label: "textured_cube_fs", WGSL: `
@group(0) @binding(1) var u_color_map: texture_2d<f32>;
@group(0) @binding(2) var u_color_map_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let rgba = textureSample(u_color_map, u_color_map_sampler, uv);
    return vec4<f32>(mix(vec3<f32>(1.0), rgba.rgb, rgba.a), 1.0);
}
`, Host: gfx.FragmentFunc(func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
			return overWhite(env.Sample(ColorMap, mgl32.Vec2{in.Varyings[0], in.Varyings[1]})).Vec4(1)
		})},
		Attributes: []string{mesh.Position, mesh.UV},
		Uniforms:   []string{MVP, ColorMap},
	}
}

// PointLight is an unattenuated colored point light with no ambient
// term.
type PointLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// DiffuseLighting sits at the camera and is slightly yellow.
var DiffuseLighting = PointLight{Color: mgl32.Vec3{1, 1, 0.9}}

const diffuseVertexWGSL = `
@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;
@group(0) @binding(1) var<uniform> u_model: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) world: vec3<f32>,
    @location(2) normal: vec3<f32>,
};

@vertex
fn vs_main(
    @location(0) a_position: vec3<f32>,
    @location(1) a_uv: vec2<f32>,
    @location(2) a_normal: vec3<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    out.position = u_mvp * vec4<f32>(a_position, 1.0);
    out.uv = a_uv;
    out.world = (u_model * vec4<f32>(a_position, 1.0)).xyz;
    out.normal = (u_model * vec4<f32>(a_normal, 0.0)).xyz;
    return out;
}
`

var diffuseFragment = template.Must(template.New("diffuse").Funcs(template.FuncMap{
	"f": wgslFloat,
}).Parse(`
@group(0) @binding(2) var u_color_map: texture_2d<f32>;
@group(0) @binding(3) var u_color_map_sampler: sampler;

@fragment
fn fs_main(
    @location(0) uv: vec2<f32>,
    @location(1) world: vec3<f32>,
    @location(2) normal: vec3<f32>,
) -> @location(0) vec4<f32> {
    let rgba = textureSample(u_color_map, u_color_map_sampler, uv);
    let base = mix(vec3<f32>(1.0), rgba.rgb, rgba.a);
    let to_light = normalize(vec3<f32>({{f .Position.X}}, {{f .Position.Y}}, {{f .Position.Z}}) - world);
    let diffuse = clamp(dot(to_light, normalize(normal)), 0.0, 1.0);
    let light_color = vec3<f32>({{f .Color.X}}, {{f .Color.Y}}, {{f .Color.Z}});
    return vec4<f32>(diffuse * light_color * base, 1.0);
}
`))

// DiffuseCube shades the textured cube with per-vertex normals under a
// single point light.
func DiffuseCube(light PointLight) shader.Spec {
	return shader.Spec{
		Label: "diffuse_cube",
		Vertex: gfx.Source{Label: "diffuse_cube_vs", WGSL: diffuseVertexWGSL, Host: gfx.VertexFunc(func(env gfx.Env, in gfx.VertexInput) gfx.VertexOutput {
			mvp, model := env.Mat4(MVP), env.Mat4(Model)
			p, uv, n := in[0], in[1], in[2]
			pos := mgl32.Vec4{p[0], p[1], p[2], 1}
			world := model.Mul4x1(pos)
			normal := model.Mul4x1(mgl32.Vec4{n[0], n[1], n[2], 0})
			return gfx.VertexOutput{
				Position: mvp.Mul4x1(pos),
				Varyings: []float32{
					uv[0], uv[1],
					world[0], world[1], world[2],
					normal[0], normal[1], normal[2],
				},
			}
		})},
		Fragment: gfx.Source{Label: "diffuse_cube_fs", WGSL: generate(diffuseFragment, light), Host: gfx.FragmentFunc(func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
			v := in.Varyings
			base := overWhite(env.Sample(ColorMap, mgl32.Vec2{v[0], v[1]}))
			world := mgl32.Vec3{v[2], v[3], v[4]}
			normal := normalize(mgl32.Vec3{v[5], v[6], v[7]})
			diffuse := mgl32.Clamp(normalize(light.Position.Sub(world)).Dot(normal), 0, 1)
			rgb := mgl32.Vec3{
				diffuse * light.Color[0] * base[0],
				diffuse * light.Color[1] * base[1],
				diffuse * light.Color[2] * base[2],
			}
			return rgb.Vec4(1)
		})},
		Attributes: []string{mesh.Position, mesh.UV, mesh.Normal},
		Uniforms:   []string{MVP, Model, ColorMap},
	}
}

// overWhite blends rgba over white by its alpha.
func overWhite(rgba mgl32.Vec4) mgl32.Vec3 {
	return mgl32.Vec3{1, 1, 1}.Mul(1 - rgba[3]).Add(rgba.Vec3().Mul(rgba[3]))
}

// Present copies the Image texture to the bound target with alpha
// forced to 1.
func Present() shader.Spec {
	return shader.Spec{
		Label:  "present",
		Vertex: shader.ScreenVertex(),
		Fragment: gfx.Source{Label: "present_fs", WGSL: `
@group(0) @binding(0) var u_image: texture_2d<f32>;
@group(0) @binding(1) var u_image_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let c = textureSample(u_image, u_image_sampler, uv);
    return vec4<f32>(c.rgb, 1.0);
}
`, Host: gfx.FragmentFunc(func(env gfx.Env, in gfx.FragmentInput) mgl32.Vec4 {
			c := env.Sample(Image, mgl32.Vec2{in.Varyings[0], in.Varyings[1]})
			return c.Vec3().Vec4(1)
		})},
		Attributes: []string{mesh.Position},
		Uniforms:   []string{Image},
	}
}

// normalize returns v scaled to unit length, or v itself when it has no
// length.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// generate executes a source template whose data is fixed at build
// time. Template errors are programming errors.
func generate(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("scene: generate %s: %v", t.Name(), err))
	}
	return b.String()
}

func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
