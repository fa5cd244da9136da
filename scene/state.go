// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene holds the per-frame state and the shader programs of the
// sample scenes: flat and rotating triangles, a field of orbiting cubes
// and a normal-mapped cube.
//
// Matrices are column-major mgl32 values. Projections map depth to
// [0, 1]; see Perspective.
package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameState tracks frame timing. It is mutated once per frame by the
// render loop and read by passes.
type FrameState struct {
	// Now is the timestamp of the current frame.
	Now time.Duration
	// Delta is the time since the previous frame; 0 on the first.
	Delta time.Duration
	// Frame counts frames from 0.
	Frame uint64

	started bool
}

// Advance moves the state to the frame at now. A timestamp earlier than
// the current one yields a zero delta.
func (s *FrameState) Advance(now time.Duration) {
	if !s.started {
		s.started = true
		s.Now = now
		return
	}
	s.Frame++
	s.Delta = max(now-s.Now, 0)
	s.Now = now
}

// Seconds returns Delta in seconds.
func (s *FrameState) Seconds() float32 {
	return float32(s.Delta.Seconds())
}

// Spinner turns time into a rotation angle.
type Spinner struct {
	// Rate is the angular speed in radians per second.
	Rate float32
}

// Angle returns the rotation at now.
func (s Spinner) Angle(now time.Duration) float32 {
	return s.Rate * float32(now.Seconds())
}

// CubeModel places the textured cube three units in front of the camera
// and tumbles it by angle around Y and a slower fraction around X.
func CubeModel(angle float32) mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -3).
		Mul4(mgl32.HomogRotate3DY(angle)).
		Mul4(mgl32.HomogRotate3DX(0.273 * angle))
}

// ColorCubeModel places the color cube three units along +X and turns it
// by angle around Z and a slower fraction around Y.
func ColorCubeModel(angle float32) mgl32.Mat4 {
	return mgl32.Translate3D(3, 0, 0).
		Mul4(mgl32.HomogRotate3DZ(angle)).
		Mul4(mgl32.HomogRotate3DY(0.273 * angle))
}
