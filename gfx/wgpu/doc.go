// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements gfx.Context on the gogpu/wgpu HAL.
//
// Shader stages are compiled from WGSL to SPIR-V with naga. The context
// records draws between framebuffer switches and encodes each run as one
// render pass, so the single-binding model of gfx maps onto WebGPU's
// explicit passes without changing pass code. The display surface is an
// offscreen RGBA8 texture with a depth attachment; ReadPixels copies it
// back through a staging buffer.
//
// Build with the nogpu tag to exclude this package's GPU code.
package wgpu
