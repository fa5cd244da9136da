//go:build !nogpu

package main

import (
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/gfx/wgpu"
)

func newGPUContext(width, height int) (gfx.Context, error) {
	return wgpu.New(width, height)
}
