// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blur

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/gfx/soft"
	"github.com/gogpu/rendergraph/internal/wgsl"
	"github.com/gogpu/rendergraph/mesh"
	"github.com/gogpu/rendergraph/shader"
	"github.com/gogpu/rendergraph/target"
	"github.com/gogpu/rendergraph/texture"
)

type fixture struct {
	ctx  *soft.Context
	quad *mesh.Mesh
	out  *target.Target
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	ctx, err := soft.New(w, h, soft.WithValidator(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ctx.Destroy)
	quad, err := mesh.NewGeometry(ctx, mesh.ScreenQuad())
	if err != nil {
		t.Fatal(err)
	}
	out, err := target.New(ctx, "out", w, h)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{ctx: ctx, quad: quad, out: out}
}

func (f *fixture) blur(t *testing.T, axis Axis, k Kernel, in *texture.Texture, factor float32) *image.RGBA {
	t.Helper()
	p, err := NewPass(f.ctx, axis, k)
	if err != nil {
		t.Fatalf("NewPass: %v", err)
	}
	defer p.Destroy()
	f.out.Bind()
	p.Draw(f.quad, in, factor)
	img, err := f.out.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(40 + 60*x), uint8(200 - 50*y), uint8(17 * (x + y)), 255})
		}
	}
	return img
}

func samePixels(t *testing.T, got, want *image.RGBA) {
	t.Helper()
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g, w := got.RGBAAt(x, y), want.RGBAAt(x, y); g != w {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func TestZeroFactorReproducesInput(t *testing.T) {
	f := newFixture(t, 2, 2)
	src := checker(2, 2)
	in, err := texture.FromImage(f.ctx, "in", src)
	if err != nil {
		t.Fatal(err)
	}
	for _, axis := range []Axis{Horizontal, Vertical} {
		t.Run(axis.String(), func(t *testing.T) {
			samePixels(t, f.blur(t, axis, Default(), in, 0), src)
		})
	}
}

func TestChainAtZeroFactorReproducesInput(t *testing.T) {
	flat := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(flat.Pix); i += 4 {
		copy(flat.Pix[i:], []byte{30, 140, 220, 255})
	}
	tests := []struct {
		name string
		src  *image.RGBA
	}{
		{"flat", flat},
		{"checker", checker(2, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 2)
			in, err := texture.FromImage(f.ctx, "in", tt.src)
			if err != nil {
				t.Fatal(err)
			}
			mid, err := target.New(f.ctx, "mid", 2, 2)
			if err != nil {
				t.Fatal(err)
			}
			h, err := NewPass(f.ctx, Horizontal, Default())
			if err != nil {
				t.Fatal(err)
			}
			defer h.Destroy()
			v, err := NewPass(f.ctx, Vertical, Default())
			if err != nil {
				t.Fatal(err)
			}
			defer v.Destroy()

			mid.Bind()
			h.Draw(f.quad, in, 0)
			f.out.Bind()
			v.Draw(f.quad, mid.ColorAttachment(), 0)
			img, err := f.out.ReadPixels()
			if err != nil {
				t.Fatal(err)
			}
			samePixels(t, img, tt.src)
		})
	}
}

func TestCachedPassSharesProgram(t *testing.T) {
	f := newFixture(t, 2, 2)
	programs := shader.NewCache(f.ctx)
	defer programs.Close()
	a, err := NewCachedPass(programs, Horizontal, Default())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCachedPass(programs, Horizontal, Default())
	if err != nil {
		t.Fatal(err)
	}
	if a.Program() != b.Program() {
		t.Error("passes with one axis and kernel should share a program")
	}
	if _, err := NewCachedPass(programs, Horizontal, GaussianKernel(1)); err != nil {
		t.Fatal(err)
	}
	if programs.Len() != 2 {
		t.Errorf("cached programs = %d, want one per kernel", programs.Len())
	}
	a.Destroy()
	if programs.Len() != 2 {
		t.Error("destroying a cached pass must leave the program to the cache")
	}
	in, err := texture.FromImage(f.ctx, "in", checker(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	f.out.Bind()
	b.Draw(f.quad, in, 0)
	img, err := f.out.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	samePixels(t, img, checker(2, 2))
}

func TestIdentityKernelReproducesInput(t *testing.T) {
	f := newFixture(t, 4, 3)
	src := checker(4, 3)
	in, err := texture.FromImage(f.ctx, "in", src)
	if err != nil {
		t.Fatal(err)
	}
	samePixels(t, f.blur(t, Horizontal, Identity(), in, 7), src)
}

func TestFlatImageStaysFlat(t *testing.T) {
	f := newFixture(t, 8, 8)
	flat, err := texture.NewSolid(f.ctx, "flat", 8, 8, color.RGBA{90, 30, 200, 255})
	if err != nil {
		t.Fatal(err)
	}
	img := f.blur(t, Vertical, Default(), flat, 3)
	want := color.RGBA{90, 30, 200, 255}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestHorizontalBlurSpreadsAlongX(t *testing.T) {
	f := newFixture(t, 8, 2)
	src := image.NewRGBA(image.Rect(0, 0, 8, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(0)
			if x >= 4 {
				v = 255
			}
			src.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	in, err := texture.FromImage(f.ctx, "edge", src)
	if err != nil {
		t.Fatal(err)
	}

	h := f.blur(t, Horizontal, GaussianKernel(1), in, 1)
	if g := h.RGBAAt(3, 0).R; g == 0 || g == 255 {
		t.Errorf("horizontal blur left the edge sharp: %d", g)
	}

	v := f.blur(t, Vertical, GaussianKernel(1), in, 1)
	samePixels(t, v, src)
}

func TestFragmentWGSL(t *testing.T) {
	src, err := FragmentWGSL(Vertical, Default())
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(src, "textureSample("); n != 19 {
		t.Errorf("source has %d samples, want 19", n)
	}
	if !strings.Contains(src, "vec2<f32>(0.0, 1.0)") {
		t.Error("vertical pass should step along y")
	}
	m, err := wgsl.Reflect(src)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if m.Stage != wgsl.Fragment {
		t.Errorf("stage = %v", m.Stage)
	}
	for _, name := range []string{RadiusFactor, Image, Image + wgsl.SamplerSuffix} {
		if _, ok := m.Binding(name); !ok {
			t.Errorf("binding %q missing", name)
		}
	}
}

func TestFragmentWGSLCompiles(t *testing.T) {
	src, err := FragmentWGSL(Horizontal, Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := soft.NagaValidator(src); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("generated source rejected: %v", err)
	}
}

func TestNewPassRejectsEvenKernel(t *testing.T) {
	f := newFixture(t, 1, 1)
	if _, err := NewPass(f.ctx, Horizontal, Kernel{0.5, 0.5}); err == nil {
		t.Error("even kernel accepted")
	}
}

func TestNewPassCompileError(t *testing.T) {
	ctx, err := soft.New(1, 1, soft.WithValidator(func(string) error {
		return errors.New("driver says no")
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Destroy()
	_, err = NewPass(ctx, Horizontal, Identity())
	if !errors.Is(err, gfx.ErrSetup) {
		t.Errorf("err = %v, want ErrSetup", err)
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := map[float32]string{1: "1.0", 0: "0.0", -1.5: "-1.5", 0.25: "0.25"}
	for in, want := range tests {
		if got := wgslFloat(in); got != want {
			t.Errorf("wgslFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPassMatchesConvolve(t *testing.T) {
	const w, h = 12, 6
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetRGBA(x, y, color.RGBA{uint8((x * 37) % 256), uint8((y * 71) % 256), uint8((x*y*13 + 5) % 256), 255})
		}
	}
	f := newFixture(t, w, h)
	in, err := texture.FromImage(f.ctx, "noise", src)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []Kernel{GaussianKernel(1), GaussianKernel(2)} {
		for _, axis := range []Axis{Horizontal, Vertical} {
			t.Run(fmt.Sprintf("%s/%d", axis, len(k)), func(t *testing.T) {
				got := f.blur(t, axis, k, in, 1)
				want := Convolve(src, k, axis)
				for i := range want.Pix {
					d := int(got.Pix[i]) - int(want.Pix[i])
					if d < -2 || d > 2 {
						t.Fatalf("byte %d = %d, want %d within 2", i, got.Pix[i], want.Pix[i])
					}
				}
			})
		}
	}
}

func TestConvolveIdentity(t *testing.T) {
	src := checker(4, 3)
	samePixels(t, Convolve(src, Identity(), Horizontal), src)
	samePixels(t, Convolve(src, Identity(), Vertical), src)
}
