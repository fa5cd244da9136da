// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline assembles the sample scenes into compiled render
// graphs and drives them from a frame scheduler.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/scene"
	"github.com/gogpu/rendergraph/shader"
	"github.com/gogpu/rendergraph/target"
	"github.com/gogpu/rendergraph/texture"
)

// Param supplies a value that may change between frames. It is read
// once per frame on the render goroutine.
type Param interface {
	Value() float32
}

// Fixed is a constant Param.
type Fixed float32

// Value returns f.
func (f Fixed) Value() float32 { return float32(f) }

// Pipeline is a compiled graph with the state and resources it draws
// from.
type Pipeline struct {
	name    string
	ctx     gfx.Context
	graph   *graph.Graph
	progs   *shader.Cache
	state   scene.FrameState
	loads   []*texture.Future
	targets map[string]*target.Target
	frames  uint64

	// update advances sample state once per executed frame.
	update func(s *scene.FrameState)

	closers []func()
}

func newPipeline(ctx gfx.Context, name string) *Pipeline {
	p := &Pipeline{
		name:    name,
		ctx:     ctx,
		graph:   graph.New(),
		progs:   shader.NewCache(ctx),
		targets: make(map[string]*target.Target),
	}
	// Programs outlive every pass that draws with them.
	p.own(p.progs.Close)
	return p
}

// own registers fn to run on Destroy, in reverse registration order.
func (p *Pipeline) own(fn func()) {
	p.closers = append(p.closers, fn)
}

// compile finishes assembly. On failure the resources acquired so far
// are released.
func (p *Pipeline) compile() error {
	if err := p.graph.Compile(); err != nil {
		p.Destroy()
		return fmt.Errorf("pipeline %q: %w", p.name, err)
	}
	rendergraph.Logger().Info("pipeline: ready", "name", p.name, "passes", len(p.graph.Order()))
	return nil
}

// Name returns the sample name.
func (p *Pipeline) Name() string { return p.name }

// Graph returns the compiled graph.
func (p *Pipeline) Graph() *graph.Graph { return p.graph }

// State returns the frame state of the last Render call.
func (p *Pipeline) State() scene.FrameState { return p.state }

// Programs returns the cache the pipeline builds its programs through.
func (p *Pipeline) Programs() *shader.Cache { return p.progs }

// Target returns the offscreen target called label, or nil.
func (p *Pipeline) Target(label string) *target.Target { return p.targets[label] }

// Frames returns the number of frames drawn.
func (p *Pipeline) Frames() uint64 { return p.frames }

// Render draws the frame at now. It uploads finished texture loads
// first. When an input is still loading nothing is drawn and the error
// matches graph.ErrNotReady; callers retry on the next frame. Any other
// error is fatal for the pipeline.
func (p *Pipeline) Render(now time.Duration) error {
	for _, f := range p.loads {
		if state, _ := f.Poll(); state == texture.Failed {
			return fmt.Errorf("pipeline %q: texture %s: %w", p.name, f.URL(), f.Err())
		}
	}
	p.state.Advance(now)
	if err := p.graph.Ready(); err != nil {
		return err
	}
	if p.update != nil {
		p.update(&p.state)
	}

	p.ctx.BeginFrame()
	err := p.graph.Execute(&graph.Frame{
		Now:    p.state.Now,
		Delta:  p.state.Delta,
		Number: p.frames,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.name, err)
	}
	if err := p.ctx.EndFrame(); err != nil {
		return fmt.Errorf("pipeline %q: %w", p.name, err)
	}
	p.frames++
	return nil
}

// WaitLoads blocks until every texture load has decoded or ctx ends. It
// returns the first decode error. Render still has to be called to
// upload the images.
func (p *Pipeline) WaitLoads(ctx context.Context) error {
	for _, f := range p.loads {
		if _, err := f.Wait(ctx); err != nil {
			return fmt.Errorf("pipeline %q: %w", p.name, err)
		}
	}
	return nil
}

// Destroy releases every resource the pipeline created. In-flight
// texture decodes finish in the background and are dropped.
func (p *Pipeline) Destroy() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}
