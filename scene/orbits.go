// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Orbit parameters. Bodies start on near-circular orbits around the
// origin under an inverse-square pull of strength Gravity.
const (
	Gravity     = 200
	OrbitRadius = 40
	OrbitHeight = 10
)

// Body is one orbiting cube.
type Body struct {
	// Model is the body transform. Its translation column is the
	// position.
	Model    mgl32.Mat4
	Velocity mgl32.Vec3
}

// Position returns the translation of Model.
func (b *Body) Position() mgl32.Vec3 {
	return mgl32.Vec3{b.Model[12], b.Model[13], b.Model[14]}
}

// Step integrates the body over dt seconds. The body spins about its
// velocity direction at a rate equal to its speed.
func (b *Body) Step(dt float32) {
	pos := b.Position()
	r := pos.Len()

	if speed := b.Velocity.Len(); speed != 0 {
		axis := b.Velocity.Mul(1 / speed)
		b.Model = b.Model.Mul4(mgl32.HomogRotate3D(-speed*dt, axis))
	}
	if r != 0 {
		accel := pos.Mul(-Gravity * dt / (r * math32.Max(0.0001, r*r)))
		b.Velocity = b.Velocity.Add(accel)
	}
	pos = pos.Add(b.Velocity.Mul(dt))
	b.Model[12], b.Model[13], b.Model[14] = pos[0], pos[1], pos[2]
}

// OrbitField is a set of bodies stepped together.
type OrbitField struct {
	Bodies []Body
}

// NewOrbitField places n bodies at random radii in [0.25, 1] *
// OrbitRadius, scattered over OrbitHeight along Z, with the circular
// orbit speed for their radius.
func NewOrbitField(n int, rng *rand.Rand) *OrbitField {
	f := &OrbitField{Bodies: make([]Body, n)}
	for i := range f.Bodies {
		r := OrbitRadius * (0.75*rng.Float32() + 0.25)
		theta := 2 * 3.1415 * rng.Float32()
		sin, cos := math32.Sin(theta), math32.Cos(theta)

		b := &f.Bodies[i]
		b.Model = mgl32.Translate3D(r*cos, r*sin, OrbitHeight*(rng.Float32()-0.5))
		v := 15 / math32.Sqrt(r)
		b.Velocity = mgl32.Vec3{-v * sin, v * cos, 0}
	}
	return f
}

// Step advances every body by dt seconds.
func (f *OrbitField) Step(dt float32) {
	for i := range f.Bodies {
		f.Bodies[i].Step(dt)
	}
}
