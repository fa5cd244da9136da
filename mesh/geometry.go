// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

// Attribute names shared by the built-in geometry and shaders.
const (
	Position = "a_position"
	UV       = "a_uv"
	Normal   = "a_normal"
	Tangent  = "a_tangent"
	Color    = "a_color"
)

// cubeIndices winds every face counter-clockwise seen from outside.
var cubeIndices = []uint16{
	0, 1, 2, 0, 2, 3, // +Z
	4, 6, 5, 4, 7, 6, // -Z
	8, 9, 10, 8, 10, 11, // +X
	12, 14, 13, 12, 15, 14, // -X
	16, 18, 17, 16, 19, 18, // +Y
	20, 21, 22, 20, 22, 23, // -Y
}

// Cube returns a unit cube centered at the origin with position, texture
// coordinates, normal and tangent per vertex: 24 vertices, 36 indices.
func Cube() Geometry {
	return Geometry{
		Vertices: []float32{
			// +Z
			-0.5, -0.5, 0.5, 0, 1, 0, 0, 1, 1, 0, 0,
			0.5, -0.5, 0.5, 1, 1, 0, 0, 1, 1, 0, 0,
			0.5, 0.5, 0.5, 1, 0, 0, 0, 1, 1, 0, 0,
			-0.5, 0.5, 0.5, 0, 0, 0, 0, 1, 1, 0, 0,
			// -Z
			-0.5, -0.5, -0.5, 1, 1, 0, 0, -1, -1, 0, 0,
			0.5, -0.5, -0.5, 0, 1, 0, 0, -1, -1, 0, 0,
			0.5, 0.5, -0.5, 0, 0, 0, 0, -1, -1, 0, 0,
			-0.5, 0.5, -0.5, 1, 0, 0, 0, -1, -1, 0, 0,
			// +X
			0.5, -0.5, -0.5, 1, 1, 1, 0, 0, 0, 0, -1,
			0.5, 0.5, -0.5, 1, 0, 1, 0, 0, 0, 0, -1,
			0.5, 0.5, 0.5, 0, 0, 1, 0, 0, 0, 0, -1,
			0.5, -0.5, 0.5, 0, 1, 1, 0, 0, 0, 0, -1,
			// -X
			-0.5, -0.5, -0.5, 0, 1, -1, 0, 0, 0, 0, 1,
			-0.5, 0.5, -0.5, 0, 0, -1, 0, 0, 0, 0, 1,
			-0.5, 0.5, 0.5, 1, 0, -1, 0, 0, 0, 0, 1,
			-0.5, -0.5, 0.5, 1, 1, -1, 0, 0, 0, 0, 1,
			// +Y
			-0.5, 0.5, -0.5, 0, 0, 0, 1, 0, 1, 0, 0,
			0.5, 0.5, -0.5, 1, 0, 0, 1, 0, 1, 0, 0,
			0.5, 0.5, 0.5, 1, 1, 0, 1, 0, 1, 0, 0,
			-0.5, 0.5, 0.5, 0, 1, 0, 1, 0, 1, 0, 0,
			// -Y
			-0.5, -0.5, -0.5, 0, 1, 0, -1, 0, 1, 0, 0,
			0.5, -0.5, -0.5, 1, 1, 0, -1, 0, 1, 0, 0,
			0.5, -0.5, 0.5, 1, 0, 0, -1, 0, 1, 0, 0,
			-0.5, -0.5, 0.5, 0, 0, 0, -1, 0, 1, 0, 0,
		},
		Layout: NewLayout(
			Attr{Position, 3},
			Attr{UV, 2},
			Attr{Normal, 3},
			Attr{Tangent, 3},
		),
		Indices: append([]uint16(nil), cubeIndices...),
	}
}

// ColorCube returns a unit cube with a flat color per face.
func ColorCube() Geometry {
	face := func(r, g, b float32, corners ...[3]float32) []float32 {
		out := make([]float32, 0, 24)
		for _, c := range corners {
			out = append(out, c[0], c[1], c[2], r, g, b)
		}
		return out
	}
	var v []float32
	v = append(v, face(0, 102.0/255, 1, [3]float32{-0.5, -0.5, 0.5}, [3]float32{0.5, -0.5, 0.5}, [3]float32{0.5, 0.5, 0.5}, [3]float32{-0.5, 0.5, 0.5})...)
	v = append(v, face(1, 0.5, 1, [3]float32{-0.5, -0.5, -0.5}, [3]float32{0.5, -0.5, -0.5}, [3]float32{0.5, 0.5, -0.5}, [3]float32{-0.5, 0.5, -0.5})...)
	v = append(v, face(1, 0.5, 0.5, [3]float32{0.5, -0.5, -0.5}, [3]float32{0.5, 0.5, -0.5}, [3]float32{0.5, 0.5, 0.5}, [3]float32{0.5, -0.5, 0.5})...)
	v = append(v, face(1, 1, 0.5, [3]float32{-0.5, -0.5, -0.5}, [3]float32{-0.5, 0.5, -0.5}, [3]float32{-0.5, 0.5, 0.5}, [3]float32{-0.5, -0.5, 0.5})...)
	v = append(v, face(0.5, 1, 1, [3]float32{-0.5, 0.5, -0.5}, [3]float32{0.5, 0.5, -0.5}, [3]float32{0.5, 0.5, 0.5}, [3]float32{-0.5, 0.5, 0.5})...)
	v = append(v, face(0.5, 1, 0.5, [3]float32{-0.5, -0.5, -0.5}, [3]float32{0.5, -0.5, -0.5}, [3]float32{0.5, -0.5, 0.5}, [3]float32{-0.5, -0.5, 0.5})...)
	return Geometry{
		Vertices: v,
		Layout:   NewLayout(Attr{Position, 3}, Attr{Color, 3}),
		Indices:  append([]uint16(nil), cubeIndices...),
	}
}

// ScreenQuad returns two triangles covering normalized device
// coordinates, 2D positions only.
func ScreenQuad() Geometry {
	return Geometry{
		Vertices: []float32{
			-1, -1,
			1, -1,
			1, 1,

			-1, -1,
			1, 1,
			-1, 1,
		},
		Layout: NewLayout(Attr{Position, 2}),
	}
}

// Triangle returns a single triangle, 2D positions only.
func Triangle() Geometry {
	return Geometry{
		Vertices: []float32{
			-0.5, -0.5,
			0.5, -0.5,
			0, 0.5,
		},
		Layout: NewLayout(Attr{Position, 2}),
	}
}

// ColorTriangle returns a triangle with red, green and blue corners.
func ColorTriangle() Geometry {
	return Geometry{
		Vertices: []float32{
			-0.5, -0.5, 1, 0, 0,
			0.5, -0.5, 0, 1, 0,
			0, 0.5, 0, 0, 1,
		},
		Layout: NewLayout(Attr{Position, 2}, Attr{Color, 3}),
	}
}
