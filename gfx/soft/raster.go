// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rendergraph/gfx"
)

// minW is the smallest clip-space w a vertex may have. Triangles with a
// vertex closer to the eye plane are discarded.
const minW = 1e-6

// vertex is a shaded vertex in window space.
type vertex struct {
	// x, y are window coordinates, z is depth, invW is 1/w.
	x, y, z, invW float32
	// ndcX, ndcY decide the winding.
	ndcX, ndcY float32
	varyings   []float32
	clipped    bool
}

// DrawArrays draws count vertices from first as a triangle list.
func (c *Context) DrawArrays(first, count int) {
	if first < 0 || count < 0 {
		panic(fmt.Sprintf("soft: DrawArrays(%d, %d) with negative range", first, count))
	}
	d := c.prepareDraw()
	n := d.vertexCount()
	if first+count > n {
		panic(fmt.Sprintf("soft: DrawArrays(%d, %d) overruns vertex buffer of %d vertices", first, count, n))
	}
	verts := make([]vertex, count)
	for i := range verts {
		verts[i] = d.shadeVertex(first + i)
	}
	for i := 0; i+2 < count; i += 3 {
		d.triangle(&verts[i], &verts[i+1], &verts[i+2])
	}
}

// DrawElements draws count indices of the active index buffer.
func (c *Context) DrawElements(count int) {
	d := c.prepareDraw()
	if c.indices == nil {
		panic("soft: DrawElements without an index buffer")
	}
	if count < 0 || count > len(c.indices.indices) {
		panic(fmt.Sprintf("soft: DrawElements(%d) overruns index buffer of %d indices", count, len(c.indices.indices)))
	}
	n := d.vertexCount()
	shaded := make(map[uint16]*vertex)
	fetch := func(i uint16) *vertex {
		if v, ok := shaded[i]; ok {
			return v
		}
		if int(i) >= n {
			panic(fmt.Sprintf("soft: index %d out of range of %d vertices", i, n))
		}
		v := d.shadeVertex(int(i))
		shaded[i] = &v
		return &v
	}
	idx := c.indices.indices
	for i := 0; i+2 < count; i += 3 {
		d.triangle(fetch(idx[i]), fetch(idx[i+1]), fetch(idx[i+2]))
	}
}

// draw holds the state captured for one draw call.
type draw struct {
	ctx     *Context
	prog    *program
	env     *env
	fb      *framebuffer
	slots   []int
	attrs   []gfx.VertexAttribute
	input   gfx.VertexInput
	scratch []float32
}

func (c *Context) prepareDraw() *draw {
	p := c.activeProgram()
	if c.vertices == nil {
		panic("soft: draw without a vertex buffer")
	}
	if c.target.destroyed || c.target.color.destroyed {
		panic("soft: draw into destroyed framebuffer")
	}
	d := &draw{
		ctx:  c,
		prog: p,
		env:  &env{ctx: c, prog: p},
		fb:   c.target,
	}
	maxLoc := -1
	for _, in := range p.vs.module.Inputs {
		attr, ok := c.attrs[in.Location]
		if !ok {
			panic(fmt.Sprintf("soft: attribute %q (location %d) of program %q is not enabled", in.Name, in.Location, p.label))
		}
		d.slots = append(d.slots, in.Location)
		d.attrs = append(d.attrs, attr)
		maxLoc = max(maxLoc, in.Location)
	}
	d.input = make(gfx.VertexInput, maxLoc+1)
	return d
}

// vertexCount is the number of whole vertices every enabled attribute can
// read.
func (d *draw) vertexCount() int {
	floats := len(d.ctx.vertices.floats)
	n := -1
	for _, a := range d.attrs {
		end := a.Offset/4 + components(a.Format)
		count := 0
		if floats >= end {
			count = (floats-end)/(a.Stride/4) + 1
		}
		if n < 0 || count < n {
			n = count
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func (d *draw) shadeVertex(i int) vertex {
	data := d.ctx.vertices.floats
	for k, loc := range d.slots {
		a := d.attrs[k]
		base := (i*a.Stride + a.Offset) / 4
		v := mgl32.Vec4{0, 0, 0, 1}
		for j := 0; j < components(a.Format); j++ {
			v[j] = data[base+j]
		}
		d.input[loc] = v
	}
	out := d.prog.vertex(d.env, d.input)
	p := out.Position
	if p.W() <= minW {
		return vertex{clipped: true}
	}
	invW := 1 / p.W()
	nx, ny, nz := p.X()*invW, p.Y()*invW, p.Z()*invW
	w, h := float32(d.fb.color.width), float32(d.fb.color.height)
	return vertex{
		x:        (nx + 1) * 0.5 * w,
		y:        (1 - ny) * 0.5 * h,
		z:        nz,
		invW:     invW,
		ndcX:     nx,
		ndcY:     ny,
		varyings: append([]float32(nil), out.Varyings...),
	}
}

func (d *draw) triangle(a, b, c *vertex) {
	if a.clipped || b.clipped || c.clipped {
		return
	}
	area := (b.ndcX-a.ndcX)*(c.ndcY-a.ndcY) - (c.ndcX-a.ndcX)*(b.ndcY-a.ndcY)
	if area == 0 || (area < 0 && d.ctx.cullBack) {
		return
	}

	fbW, fbH := d.fb.color.width, d.fb.color.height
	minX := max(int(math32.Floor(min(a.x, b.x, c.x))), 0)
	maxX := min(int(math32.Ceil(max(a.x, b.x, c.x))), fbW-1)
	minY := max(int(math32.Floor(min(a.y, b.y, c.y))), 0)
	maxY := min(int(math32.Ceil(max(a.y, b.y, c.y))), fbH-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Window-space signed area; its sign is opposite to the NDC area
	// because y is flipped.
	denom := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	nv := min(len(a.varyings), len(b.varyings), len(c.varyings))
	if cap(d.scratch) < nv {
		d.scratch = make([]float32, nv)
	}
	vary := d.scratch[:nv]

	depthTest := d.ctx.depthTest && d.fb.depth != nil
	for py := minY; py <= maxY; py++ {
		fy := float32(py) + 0.5
		for px := minX; px <= maxX; px++ {
			fx := float32(px) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, fx, fy) / denom
			w1 := edge(c.x, c.y, a.x, a.y, fx, fy) / denom
			w2 := edge(a.x, a.y, b.x, b.y, fx, fy) / denom
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if z < 0 || z > 1 {
				continue
			}
			pix := py*fbW + px
			if depthTest && !(z < d.fb.depth.depth[pix]) {
				continue
			}

			p0, p1, p2 := w0*a.invW, w1*b.invW, w2*c.invW
			invW := p0 + p1 + p2
			for k := range vary {
				vary[k] = (p0*a.varyings[k] + p1*b.varyings[k] + p2*c.varyings[k]) / invW
			}
			col := d.prog.fragment(d.env, gfx.FragmentInput{
				Coord:    mgl32.Vec4{fx, fy, z, invW},
				Varyings: vary,
			})

			if depthTest {
				d.fb.depth.depth[pix] = z
			}
			o := pix * 4
			out := d.fb.color.pix
			out[o] = quantize(col[0])
			out[o+1] = quantize(col[1])
			out[o+2] = quantize(col[2])
			out[o+3] = quantize(col[3])
		}
	}
}

// edge is the doubled signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// quantize converts a normalized channel to 8 bits with rounding.
func quantize(v float32) uint8 {
	if math32.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math32.Round(v * 255))
}
