// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blur implements a separable Gaussian blur as two full-screen
// passes, one per axis.
//
// Each pass samples its input along its axis with a fixed set of taps
// generated from a Kernel. Adjacent kernel weights share one bilinear
// fetch, so a kernel of radius 18 costs 19 samples. Tap offsets are
// multiplied at draw time by a radius factor, so the blur strength can
// change every frame without recompiling.
package blur
