// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"sync"

	"github.com/gogpu/rendergraph/gfx"
)

// Cache memoizes programs by label and stage sources so that passes
// sharing a program compile it once. Cached programs are owned by the
// cache and released by Close.
type Cache struct {
	mu       sync.Mutex
	ctx      gfx.Context
	programs map[string]*Program
	order    []string
}

// NewCache creates an empty cache bound to ctx.
func NewCache(ctx gfx.Context) *Cache {
	return &Cache{ctx: ctx, programs: make(map[string]*Program)}
}

// Get returns the program built from spec, building it on first use.
// Failed builds are not cached.
func (c *Cache) Get(spec Spec) (*Program, error) {
	key := cacheKey(spec)
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[key]; ok {
		return p, nil
	}
	p, err := New(c.ctx, spec)
	if err != nil {
		return nil, err
	}
	c.programs[key] = p
	c.order = append(c.order, key)
	return p, nil
}

// cacheKey identifies a program. Generated stages share a label but
// differ in source.
func cacheKey(spec Spec) string {
	return spec.Label + "\x00" + spec.Vertex.WGSL + "\x00" + spec.Fragment.WGSL
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs)
}

// Close destroys every cached program in reverse creation order.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.order) - 1; i >= 0; i-- {
		c.programs[c.order[i]].Destroy()
	}
	c.programs = make(map[string]*Program)
	c.order = nil
}
