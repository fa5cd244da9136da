//go:build nogpu

package main

import (
	"errors"

	"github.com/gogpu/rendergraph/gfx"
)

func newGPUContext(int, int) (gfx.Context, error) {
	return nil, errors.New("rgdemo: built with nogpu")
}
