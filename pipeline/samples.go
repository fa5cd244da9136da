// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/blur"
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/mesh"
	"github.com/gogpu/rendergraph/scene"
	"github.com/gogpu/rendergraph/shader"
	"github.com/gogpu/rendergraph/target"
	"github.com/gogpu/rendergraph/texture"
)

// Image locations of the textured cube.
const (
	DefaultColorMapURL  = "https://raw.githubusercontent.com/astrelni/webgl_samples/master/third_party/154.jpg"
	DefaultNormalMapURL = "https://raw.githubusercontent.com/astrelni/webgl_samples/master/third_party/154_norm.jpg"
)

// DefaultOrbitCount is the number of cubes of NewOrbits.
const DefaultOrbitCount = 5000

// Sample names accepted by New.
const (
	SampleTriangle         = "triangle"
	SampleSpinningTriangle = "spinning"
	SampleColorCube        = "color_cube"
	SampleOrbits           = "orbits"
	SampleTexturedCube     = "textured_cube"
	SampleDiffuse          = "diffuse"
	SampleCube             = "cube"
	SampleBlur             = "blur"
)

// Samples lists the sample names in tutorial order.
var Samples = []string{
	SampleTriangle, SampleSpinningTriangle, SampleColorCube, SampleOrbits,
	SampleTexturedCube, SampleDiffuse, SampleCube, SampleBlur,
}

// Textures locates the color and normal maps of the textured cube.
type Textures struct {
	Loader    *texture.Loader
	ColorMap  string
	NormalMap string
}

func (t Textures) withDefaults() Textures {
	if t.ColorMap == "" {
		t.ColorMap = DefaultColorMapURL
	}
	if t.NormalMap == "" {
		t.NormalMap = DefaultNormalMapURL
	}
	return t
}

// OrbitsConfig configures NewOrbits.
type OrbitsConfig struct {
	// Count is the number of cubes; 0 selects DefaultOrbitCount.
	Count int
	// Seed makes the initial placement reproducible.
	Seed uint64
}

// BlurConfig configures NewBlur.
type BlurConfig struct {
	Textures Textures

	// Kernel is the blur kernel of both axes; nil selects blur.Default.
	Kernel blur.Kernel

	// RadiusFactor scales tap offsets; nil selects Fixed(1).
	RadiusFactor Param
}

// Config selects and configures a sample for New.
type Config struct {
	Sample   string
	Textures Textures
	Orbits   OrbitsConfig
	Blur     BlurConfig
}

// New builds the sample named by cfg.Sample.
func New(ctx gfx.Context, cfg Config) (*Pipeline, error) {
	switch cfg.Sample {
	case SampleTriangle:
		return NewTriangle(ctx)
	case SampleSpinningTriangle:
		return NewSpinningTriangle(ctx)
	case SampleColorCube:
		return NewColorCube(ctx)
	case SampleOrbits:
		return NewOrbits(ctx, cfg.Orbits)
	case SampleTexturedCube:
		return NewTexturedCube(ctx, cfg.Textures)
	case SampleDiffuse:
		return NewDiffuseCube(ctx, cfg.Textures)
	case SampleCube:
		return NewCube(ctx, cfg.Textures)
	case SampleBlur, "":
		b := cfg.Blur
		if b.Textures.Loader == nil {
			b.Textures = cfg.Textures
		}
		return NewBlur(ctx, b)
	default:
		return nil, fmt.Errorf("pipeline: unknown sample %q", cfg.Sample)
	}
}

func (p *Pipeline) fail(err error) error {
	p.Destroy()
	return fmt.Errorf("pipeline %q: %w", p.name, err)
}

func (p *Pipeline) program(spec shader.Spec) (*shader.Program, error) {
	return p.progs.Get(spec)
}

func (p *Pipeline) mesh(g mesh.Geometry) (*mesh.Mesh, error) {
	m, err := mesh.NewGeometry(p.ctx, g)
	if err != nil {
		return nil, err
	}
	p.own(m.Destroy)
	return m, nil
}

func (p *Pipeline) target(label string, opts ...target.Option) (*target.Target, error) {
	w, h := p.ctx.Size()
	t, err := target.New(p.ctx, label, w, h, opts...)
	if err != nil {
		return nil, err
	}
	p.own(t.Destroy)
	p.targets[label] = t
	return t, nil
}

func (p *Pipeline) load(tex Textures, url string) (*texture.Texture, error) {
	if tex.Loader == nil {
		return nil, fmt.Errorf("no texture loader for %s", url)
	}
	f := tex.Loader.Load(url)
	p.loads = append(p.loads, f)
	p.own(f.Texture().Destroy)
	return f.Texture(), nil
}

func (p *Pipeline) aspect() float32 {
	w, h := p.ctx.Size()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// NewTriangle draws a flat-colored triangle on a cyan background.
func NewTriangle(ctx gfx.Context) (*Pipeline, error) {
	p := newPipeline(ctx, SampleTriangle)
	prog, err := p.program(scene.FlatTriangle())
	if err != nil {
		return nil, p.fail(err)
	}
	tri, err := p.mesh(mesh.Triangle())
	if err != nil {
		return nil, p.fail(err)
	}
	screen := target.Screen(ctx, target.WithClearColor(color.RGBA{0, 255, 255, 255}))
	p.graph.AddPass(graph.Pass{
		Name:   "triangle",
		Output: screen,
		Run: func(*graph.Frame) {
			prog.Use()
			tri.Bind(prog)
			tri.Draw(prog, shader.Vec4(scene.FlatColor, mgl32.Vec4{0.5, 0.5, 1, 1}))
		},
	})
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewSpinningTriangle draws a vertex-colored triangle turning one radian
// per second.
func NewSpinningTriangle(ctx gfx.Context) (*Pipeline, error) {
	p := newPipeline(ctx, SampleSpinningTriangle)
	prog, err := p.program(scene.SpinningTriangle())
	if err != nil {
		return nil, p.fail(err)
	}
	tri, err := p.mesh(mesh.ColorTriangle())
	if err != nil {
		return nil, p.fail(err)
	}
	spin := scene.Spinner{Rate: 1}
	p.graph.AddPass(graph.Pass{
		Name:   "triangle",
		Output: target.Screen(ctx),
		Run: func(f *graph.Frame) {
			prog.Use()
			tri.Bind(prog)
			tri.Draw(prog, shader.Float(scene.Angle, spin.Angle(f.Now)))
		},
	})
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewColorCube draws a vertex-colored cube tumbling one radian per
// second in front of a camera looking along +X.
func NewColorCube(ctx gfx.Context) (*Pipeline, error) {
	p := newPipeline(ctx, SampleColorCube)
	prog, err := p.program(scene.ColorCube())
	if err != nil {
		return nil, p.fail(err)
	}
	cube, err := p.mesh(mesh.ColorCube())
	if err != nil {
		return nil, p.fail(err)
	}
	viewProjection := scene.ColorCubeCamera(p.aspect()).ViewProjection()
	spin := scene.Spinner{Rate: 1}
	p.graph.AddPass(graph.Pass{
		Name:   "cube",
		Output: target.Screen(ctx),
		Run: func(f *graph.Frame) {
			ctx.SetDepthTest(true)
			ctx.SetCullBack(false)
			prog.Use()
			cube.Bind(prog)
			cube.Draw(prog, shader.Mat4(scene.MVP, viewProjection.Mul4(scene.ColorCubeModel(spin.Angle(f.Now)))))
		},
	})
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewOrbits draws a field of color cubes orbiting the origin.
func NewOrbits(ctx gfx.Context, cfg OrbitsConfig) (*Pipeline, error) {
	if cfg.Count <= 0 {
		cfg.Count = DefaultOrbitCount
	}
	p := newPipeline(ctx, SampleOrbits)
	prog, err := p.program(scene.ColorCube())
	if err != nil {
		return nil, p.fail(err)
	}
	cube, err := p.mesh(mesh.ColorCube())
	if err != nil {
		return nil, p.fail(err)
	}
	field := scene.NewOrbitField(cfg.Count, rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)))
	viewProjection := scene.OrbitCamera(p.aspect()).ViewProjection()

	p.update = func(s *scene.FrameState) {
		field.Step(s.Seconds())
	}
	p.graph.AddPass(graph.Pass{
		Name:   "orbits",
		Output: target.Screen(ctx),
		Run: func(*graph.Frame) {
			ctx.SetDepthTest(true)
			ctx.SetCullBack(true)
			prog.Use()
			cube.Bind(prog)
			for i := range field.Bodies {
				cube.Draw(prog, shader.Mat4(scene.MVP, viewProjection.Mul4(field.Bodies[i].Model)))
			}
		},
	})
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// cubeShading selects the program of a textured cube pass and the
// inputs it reads.
type cubeShading struct {
	spec shader.Spec
	// model is set when the program reads the Model uniform.
	model bool
	// normalMap adds the normal map on texture unit 1.
	normalMap bool
	// rate is the spin in radians per second.
	rate float32
}

// cubePass builds a pass drawing the tumbling textured cube into out.
// The pass reads the color map, and the normal map when the shading
// asks for it, so the graph skips frames until they have loaded.
func (p *Pipeline) cubePass(name string, out *target.Target, tex Textures, sh cubeShading) (graph.Pass, error) {
	tex = tex.withDefaults()
	prog, err := p.program(sh.spec)
	if err != nil {
		return graph.Pass{}, err
	}
	cube, err := p.mesh(mesh.Cube())
	if err != nil {
		return graph.Pass{}, err
	}
	colorMap, err := p.load(tex, tex.ColorMap)
	if err != nil {
		return graph.Pass{}, err
	}
	reads := []graph.Resource{colorMap}
	var normalMap *texture.Texture
	if sh.normalMap {
		if normalMap, err = p.load(tex, tex.NormalMap); err != nil {
			return graph.Pass{}, err
		}
		reads = append(reads, normalMap)
	}
	camera := scene.CubeCamera(p.aspect())
	spin := scene.Spinner{Rate: sh.rate}
	ctx := p.ctx

	return graph.Pass{
		Name:   name,
		Reads:  reads,
		Output: out,
		Run: func(f *graph.Frame) {
			ctx.SetDepthTest(true)
			ctx.SetCullBack(true)
			model := scene.CubeModel(spin.Angle(f.Now))
			values := []shader.Value{
				shader.Mat4(scene.MVP, camera.MVP(model)),
				shader.Sampler(scene.ColorMap, 0, colorMap.Handle()),
			}
			if sh.model {
				values = append(values, shader.Mat4(scene.Model, model))
			}
			if normalMap != nil {
				values = append(values, shader.Sampler(scene.NormalMap, 1, normalMap.Handle()))
			}
			prog.Use()
			cube.Bind(prog)
			cube.Draw(prog, values...)
		},
	}, nil
}

// singleCube builds a one-pass sample drawing a textured cube on the
// screen.
func singleCube(ctx gfx.Context, name string, tex Textures, sh cubeShading) (*Pipeline, error) {
	p := newPipeline(ctx, name)
	pass, err := p.cubePass("cube", target.Screen(ctx), tex, sh)
	if err != nil {
		return nil, p.fail(err)
	}
	p.graph.AddPass(pass)
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewTexturedCube draws the cube in its unlit color map, turning one
// radian per second. Frames are skipped until the map has loaded.
func NewTexturedCube(ctx gfx.Context, tex Textures) (*Pipeline, error) {
	return singleCube(ctx, SampleTexturedCube, tex, cubeShading{
		spec: scene.TexturedCube(),
		rate: 1,
	})
}

// NewDiffuseCube draws the color-mapped cube lit by a point light at the
// camera, with per-vertex normals and no ambient term.
func NewDiffuseCube(ctx gfx.Context, tex Textures) (*Pipeline, error) {
	return singleCube(ctx, SampleDiffuse, tex, cubeShading{
		spec:  scene.DiffuseCube(scene.DiffuseLighting),
		model: true,
		rate:  1,
	})
}

// normalMapped shades the cube with both maps under light.
func normalMapped(light scene.Lighting) cubeShading {
	return cubeShading{
		spec:      scene.NormalMappedCube(light),
		model:     true,
		normalMap: true,
		rate:      0.3,
	}
}

// NewCube draws the normal-mapped cube, lit with flat normals on its
// left half and mapped normals on its right half.
func NewCube(ctx gfx.Context, tex Textures) (*Pipeline, error) {
	return singleCube(ctx, SampleCube, tex, normalMapped(scene.SplitLighting))
}

// NewBlur draws the normal-mapped cube offscreen, blurs it horizontally
// and vertically through two more targets and presents the result.
func NewBlur(ctx gfx.Context, cfg BlurConfig) (*Pipeline, error) {
	if cfg.Kernel == nil {
		cfg.Kernel = blur.Default()
	}
	if cfg.RadiusFactor == nil {
		cfg.RadiusFactor = Fixed(1)
	}
	p := newPipeline(ctx, SampleBlur)

	a, err := p.target("A", target.WithDepth())
	if err != nil {
		return nil, p.fail(err)
	}
	b, err := p.target("B")
	if err != nil {
		return nil, p.fail(err)
	}
	c, err := p.target("C")
	if err != nil {
		return nil, p.fail(err)
	}
	screen := target.Screen(ctx)

	scenePass, err := p.cubePass("scene", a, cfg.Textures, normalMapped(scene.BlurLighting))
	if err != nil {
		return nil, p.fail(err)
	}
	quad, err := p.mesh(mesh.ScreenQuad())
	if err != nil {
		return nil, p.fail(err)
	}
	horizontal, err := blur.NewCachedPass(p.progs, blur.Horizontal, cfg.Kernel)
	if err != nil {
		return nil, p.fail(err)
	}
	vertical, err := blur.NewCachedPass(p.progs, blur.Vertical, cfg.Kernel)
	if err != nil {
		return nil, p.fail(err)
	}
	present, err := p.program(scene.Present())
	if err != nil {
		return nil, p.fail(err)
	}

	var factor float32
	p.update = func(*scene.FrameState) {
		factor = cfg.RadiusFactor.Value()
	}
	flat := func() {
		ctx.SetDepthTest(false)
		ctx.SetCullBack(false)
	}

	p.graph.AddPass(scenePass)
	p.graph.AddPass(graph.Pass{
		Name:   "blur_horizontal",
		Reads:  []graph.Resource{a.ColorAttachment()},
		Output: b,
		Run: func(*graph.Frame) {
			flat()
			horizontal.Draw(quad, a.ColorAttachment(), factor)
		},
	})
	p.graph.AddPass(graph.Pass{
		Name:   "blur_vertical",
		Reads:  []graph.Resource{b.ColorAttachment()},
		Output: c,
		Run: func(*graph.Frame) {
			flat()
			vertical.Draw(quad, b.ColorAttachment(), factor)
		},
	})
	p.graph.AddPass(graph.Pass{
		Name:   "present",
		Reads:  []graph.Resource{c.ColorAttachment()},
		Output: screen,
		Run: func(*graph.Frame) {
			flat()
			present.Use()
			quad.Bind(present)
			quad.Draw(present, shader.Sampler(scene.Image, 0, c.ColorAttachment().Handle()))
		},
	})
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}
