// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft provides a CPU implementation of gfx.Context.
//
// The context validates and reflects WGSL like a GPU driver would (naga
// compiles every stage by default), then executes the host
// implementation attached to each gfx.Source. Rasterization follows
// WebGPU rules closely enough for exact image tests:
//
//   - fragment centers sit at half-pixel offsets
//   - varyings are interpolated perspective-correctly
//   - depth is tested with "less" against a float32 buffer cleared to 1
//   - color attachments are RGBA8, written as round(c*255)
//   - sampling is bilinear with clamp-to-edge addressing
//
// Triangles with a vertex at or behind the eye (w <= 0) are discarded
// rather than clipped.
//
// Example:
//
//	ctx, err := soft.New(512, 512)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Destroy()
package soft
