// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rendergraph renders multi-pass frames through an explicit
// graphics context.
//
// # Overview
//
// rendergraph grew out of a graduated series of WebGL samples: a
// triangle, an animated triangle, a spinning cube, thousands of orbiting
// cubes, texturing, diffuse lighting, normal mapping and finally a
// framebuffer post-process chain. Instead of repeating shader, buffer and
// texture setup in every sample, the pieces live in shared packages and
// the post-process chain is an explicit render graph:
//
//	scene (target A, color+depth)
//	  -> blur_horizontal (A.color -> target B)
//	  -> blur_vertical   (B.color -> target C)
//	  -> present         (C.color -> screen)
//
// # Packages
//
//   - gfx: the GraphicsContext interface and resource handles
//   - gfx/soft: CPU reference context (host-executed shader stages)
//   - gfx/wgpu: GPU context over gogpu/wgpu
//   - shader, mesh, texture, target: GPU resource wrappers
//   - graph: pass nodes, dependency ordering, readiness gating
//   - blur: separable Gaussian kernels and blur passes
//   - scene: per-frame state and sample geometry
//   - frame: vertical-sync driven frame scheduler
//   - pipeline: sample assembly and the per-frame loop
//   - config: file configuration and live parameters
//
// # Quick Start
//
//	ctx, _ := soft.New(512, 512)
//	loader := texture.NewLoader(ctx, texture.HTTPDecoder{})
//	p, _ := pipeline.NewBlur(ctx, pipeline.BlurConfig{
//		Textures:     pipeline.Textures{Loader: loader},
//		RadiusFactor: pipeline.Fixed(1),
//	})
//	sched := frame.NewScheduler()
//	pipeline.NewLoop(sched, p).Start()
//	_ = sched.Run(context.Background(), frame.NewTicker(60))
//
// # Threading
//
// A context and every resource created from it belong to one goroutine.
// Image decoding runs elsewhere and is observed by polling.
package rendergraph

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
