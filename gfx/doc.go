// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfx defines the graphics context every resource and pass is
// created from.
//
// A Context replaces the implicit, process-wide GL object of the WebGL
// samples with an explicit value. It keeps the same single-binding
// semantics: exactly one program, one framebuffer, one vertex buffer, one
// index buffer and one texture per unit are active at a time, and every
// bind call mutates that shared state. Passes therefore always re-bind
// everything they use before drawing.
//
// # Implementations
//
//   - gfx/soft: CPU reference context. Shader stages run as host Go
//     functions attached to each [Source]; WGSL is still validated and
//     reflected so binding names resolve exactly as on a GPU.
//   - gfx/wgpu: GPU context over gogpu/wgpu HAL.
//
// # Errors
//
// Setup operations (compile, link, name resolution, resource creation)
// return errors matching [ErrSetup]. Draw calls return nothing: a draw
// against inconsistent state is a programming defect and panics.
package gfx
