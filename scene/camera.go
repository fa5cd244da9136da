// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// RadiansPerDegree converts the field-of-view angles of the scenes,
// with pi taken as 3.14.
const RadiansPerDegree = 3.14 / 180

// depthRemap maps clip z from [-w, w] to [0, w].
var depthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective returns a right-handed perspective projection with depth
// in [0, 1]: near maps to 0 and far to 1.
func Perspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	return depthRemap.Mul4(mgl32.Perspective(fovy, aspect, near, far))
}

// Camera is a view and projection pair.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// MVP returns the model-view-projection matrix for model.
func (c Camera) MVP(model mgl32.Mat4) mgl32.Mat4 {
	return c.ViewProjection().Mul4(model)
}

// CubeCamera looks down -Z from the origin with a 50 degree field of
// view.
func CubeCamera(aspect float32) Camera {
	return Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}),
		Projection: Perspective(50*RadiansPerDegree, aspect, 1, 100),
	}
}

// OrbitCamera looks at the origin from below and behind the orbit plane
// with a 90 degree field of view.
func OrbitCamera(aspect float32) Camera {
	return Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, -50, 30}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0.7, 0.7}),
		Projection: Perspective(90*RadiansPerDegree, aspect, 1, 1000),
	}
}

// ColorCubeCamera looks along +X from the origin with +Z up and a 90
// degree field of view.
func ColorCubeCamera(aspect float32) Camera {
	return Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}),
		Projection: Perspective(90*RadiansPerDegree, aspect, 1, 100),
	}
}
