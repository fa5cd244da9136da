// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blur

import (
	"math"
	"sync"
)

// DefaultSigma is the standard deviation of Default, in texels. With the
// three-sigma support it yields 37 weights, merged into 19 taps.
const DefaultSigma = 6

// Kernel is a normalized, symmetric 1D convolution kernel of odd length.
// The center weight is at index Radius().
type Kernel []float32

// Radius returns the number of weights on each side of the center.
func (k Kernel) Radius() int { return len(k) / 2 }

// Tap is one texture fetch of a blur pass: Weight is applied to the
// sample at Offset texels from the center along the blur axis.
type Tap struct {
	Offset float32
	Weight float32
}

// Taps merges adjacent weights into fetches between texel centers, so
// that bilinear filtering computes both products in one sample. The
// result is symmetric: the center tap comes first, then each positive
// offset followed by its mirror.
func (k Kernel) Taps() []Tap {
	r := k.Radius()
	taps := []Tap{{Offset: 0, Weight: k[r]}}
	for i := 1; i <= r; i += 2 {
		w1 := k[r+i]
		if i == r {
			taps = append(taps, Tap{float32(i), w1}, Tap{-float32(i), w1})
			break
		}
		w2 := k[r+i+1]
		w := w1 + w2
		if w == 0 {
			continue
		}
		off := (float32(i)*w1 + float32(i+1)*w2) / w
		taps = append(taps, Tap{off, w}, Tap{-off, w})
	}
	return taps
}

// GaussianKernel generates a Gaussian kernel with standard deviation
// sigma in texels. The kernel is normalized so all values sum to 1.0.
//
// The kernel size is 2 * ceil(sigma * 3) + 1, which covers 99.7% of the
// distribution. For sigma <= 0 it returns the identity kernel.
func GaussianKernel(sigma float64) Kernel {
	if sigma <= 0 {
		return Identity()
	}

	half := int(math.Ceil(sigma * 3))
	size := half*2 + 1
	k := make(Kernel, size)

	// The normalization constant cancels out in the final division.
	twoSigmaSq := 2 * sigma * sigma
	weights := make([]float64, size)
	sum := float64(0)
	for i := range weights {
		x := float64(i - half)
		weights[i] = math.Exp(-(x * x) / twoSigmaSq)
		sum += weights[i]
	}
	for i, w := range weights {
		k[i] = float32(w / sum)
	}
	return k
}

// Identity returns the single-tap kernel [1]. A pass with it copies its
// input unchanged.
func Identity() Kernel {
	return Kernel{1}
}

// Default returns the kernel of the reference blur effect.
func Default() Kernel {
	return NewKernel(DefaultSigma)
}

// NewKernel returns a cached Gaussian kernel for sigma. The returned
// slice is shared and must not be modified.
func NewKernel(sigma float64) Kernel {
	return defaultKernelCache.get(sigma)
}

// kernelCache caches computed kernels. Keys are sigma quantized to 0.01.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int]Kernel
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[int]Kernel),
		maxLen: maxLen,
	}
}

func (c *kernelCache) get(sigma float64) Kernel {
	key := int(sigma * 100)

	c.mu.RLock()
	if k, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return k
	}
	c.mu.RUnlock()

	k := GaussianKernel(float64(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Drop half the entries; kernels are cheap to rebuild.
		n := 0
		for key := range c.cache {
			delete(c.cache, key)
			n++
			if n >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = k
	c.mu.Unlock()
	return k
}
