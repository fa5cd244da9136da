// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graph orders render passes by their declared inputs and
// outputs and executes them once per frame.
//
// Each pass writes exactly one target and may read any number of
// resources. A pass reading the color attachment of a target depends on
// the pass writing that target. The order is derived from those edges,
// never from call order, and a frame either runs every pass or none:
// when any input is not ready, Execute skips the whole chain.
package graph

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/target"
)

var (
	// ErrInvalid is returned by Compile for graphs that cannot be ordered
	// or alias a pass's input with its output.
	ErrInvalid = errors.New("graph: invalid pass graph")

	// ErrNotReady is returned by Execute when an input of some pass is not
	// ready yet. Nothing was drawn; the caller should retry next frame.
	ErrNotReady = errors.New("graph: resource not ready")
)

// Resource is a pass input.
type Resource interface {
	Label() string
	Ready() bool
}

// Frame is handed to every pass of one execution.
type Frame struct {
	// Now is the frame timestamp.
	Now time.Duration
	// Delta is the time since the previous executed frame.
	Delta time.Duration
	// Number counts executed frames from 0.
	Number uint64

	// Pass and Output identify the pass being run.
	Pass   string
	Output *target.Target
}

// Pass is one node of the graph.
type Pass struct {
	Name   string
	Reads  []Resource
	Output *target.Target
	// Run issues the pass's draws. The output is already bound and
	// cleared.
	Run func(f *Frame)
}

// Graph is a set of passes. It must be compiled before execution and is
// immutable afterwards.
type Graph struct {
	passes []Pass
	order  []int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddPass appends p. Adding a pass invalidates a previous Compile.
func (g *Graph) AddPass(p Pass) {
	g.passes = append(g.passes, p)
	g.order = nil
}

// Compile validates the graph and computes the execution order. Passes
// with no dependency between them keep insertion order.
func (g *Graph) Compile() error {
	g.order = nil
	if len(g.passes) == 0 {
		return fmt.Errorf("%w: no passes", ErrInvalid)
	}

	names := make(map[string]int, len(g.passes))
	writers := make(map[*target.Target]int, len(g.passes))
	for i, p := range g.passes {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: pass %d has no name", ErrInvalid, i)
		case p.Output == nil:
			return fmt.Errorf("%w: pass %q has no output", ErrInvalid, p.Name)
		case p.Run == nil:
			return fmt.Errorf("%w: pass %q has no Run function", ErrInvalid, p.Name)
		}
		if j, dup := names[p.Name]; dup {
			return fmt.Errorf("%w: passes %d and %d are both named %q", ErrInvalid, j, i, p.Name)
		}
		names[p.Name] = i
		if j, dup := writers[p.Output]; dup {
			return fmt.Errorf("%w: passes %q and %q both write target %q",
				ErrInvalid, g.passes[j].Name, p.Name, p.Output.Label())
		}
		writers[p.Output] = i
	}

	// produced maps each writable color attachment to its writer.
	produced := make(map[Resource]int, len(g.passes))
	for i, p := range g.passes {
		if c := p.Output.ColorAttachment(); c != nil {
			produced[c] = i
		}
	}

	deps := make([][]int, len(g.passes))
	indegree := make([]int, len(g.passes))
	for i, p := range g.passes {
		for _, r := range p.Reads {
			if r == nil {
				return fmt.Errorf("%w: pass %q reads a nil resource", ErrInvalid, p.Name)
			}
			w, ok := produced[r]
			if !ok {
				continue
			}
			if w == i {
				return fmt.Errorf("%w: pass %q reads %q, which it writes", ErrInvalid, p.Name, r.Label())
			}
			deps[w] = append(deps[w], i)
			indegree[i]++
		}
	}

	done := make([]bool, len(g.passes))
	for len(g.order) < len(g.passes) {
		next := -1
		for i := range g.passes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, p := range g.passes {
				if !done[i] {
					stuck = append(stuck, p.Name)
				}
			}
			g.order = nil
			return fmt.Errorf("%w: cycle among passes %s", ErrInvalid, strings.Join(stuck, ", "))
		}
		done[next] = true
		g.order = append(g.order, next)
		for _, d := range deps[next] {
			indegree[d]--
		}
	}

	rendergraph.Logger().Info("graph: compiled", "order", strings.Join(g.Order(), " -> "))
	return nil
}

// Order returns the pass names in execution order, nil before Compile.
func (g *Graph) Order() []string {
	if g.order == nil {
		return nil
	}
	names := make([]string, len(g.order))
	for i, idx := range g.order {
		names[i] = g.passes[idx].Name
	}
	return names
}

// Ready reports the first pass input that is not ready.
func (g *Graph) Ready() error {
	for _, idx := range g.order {
		p := &g.passes[idx]
		for _, r := range p.Reads {
			if !r.Ready() {
				return fmt.Errorf("%w: pass %q input %q", ErrNotReady, p.Name, r.Label())
			}
		}
	}
	return nil
}

// Execute runs every pass in order, binding and clearing each output
// before its Run. If any input of any pass is not ready, nothing runs and
// the returned error matches ErrNotReady.
func (g *Graph) Execute(f *Frame) error {
	if g.order == nil {
		return fmt.Errorf("%w: not compiled", ErrInvalid)
	}
	if err := g.Ready(); err != nil {
		return err
	}
	for _, idx := range g.order {
		p := &g.passes[idx]
		f.Pass = p.Name
		f.Output = p.Output
		p.Output.Bind()
		p.Run(f)
	}
	f.Pass = ""
	f.Output = nil
	return nil
}
