// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/frame"
	"github.com/gogpu/rendergraph/graph"
)

type loopOptions struct {
	maxFrames uint64
	onFrame   func(n uint64, now time.Duration)
}

// LoopOption configures a Loop.
type LoopOption func(*loopOptions)

// WithMaxFrames stops the loop after n drawn frames. Skipped frames do
// not count. Zero means no limit.
func WithMaxFrames(n uint64) LoopOption {
	return func(o *loopOptions) {
		o.maxFrames = n
	}
}

// WithFrameHook calls fn after every drawn frame with the number of
// frames drawn so far.
func WithFrameHook(fn func(n uint64, now time.Duration)) LoopOption {
	return func(o *loopOptions) {
		o.onFrame = fn
	}
}

// Loop renders a pipeline on every scheduler tick. A frame whose inputs
// are still loading is skipped and retried on the next tick without a
// deadline. Any other render error stops the loop.
type Loop struct {
	sched *frame.Scheduler
	p     *Pipeline
	opts  loopOptions

	mu      sync.Mutex
	drawn   uint64
	skipped uint64
	err     error
	stopped bool
}

// NewLoop returns a loop rendering p from sched. It does nothing until
// Start.
func NewLoop(sched *frame.Scheduler, p *Pipeline, opts ...LoopOption) *Loop {
	l := &Loop{sched: sched, p: p}
	for _, opt := range opts {
		opt(&l.opts)
	}
	return l
}

// Start requests the first frame.
func (l *Loop) Start() {
	l.sched.RequestCallback(l.tick)
}

// Stop makes the loop stop requesting frames. The scheduler goes idle
// after the pending tick.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

func (l *Loop) tick(now time.Duration) {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return
	}

	log := rendergraph.Logger()
	err := l.p.Render(now)
	switch {
	case errors.Is(err, graph.ErrNotReady):
		log.Debug("pipeline: frame skipped", "pipeline", l.p.Name(), "reason", err)
		l.mu.Lock()
		l.skipped++
		l.mu.Unlock()
	case err != nil:
		log.Error("pipeline: render failed", "pipeline", l.p.Name(), "err", err)
		l.mu.Lock()
		l.err = err
		l.stopped = true
		l.mu.Unlock()
		return
	default:
		l.mu.Lock()
		l.drawn++
		n := l.drawn
		if l.opts.maxFrames > 0 && n >= l.opts.maxFrames {
			l.stopped = true
		}
		stopped = l.stopped
		l.mu.Unlock()
		if l.opts.onFrame != nil {
			l.opts.onFrame(n, now)
		}
		if stopped {
			return
		}
	}
	l.sched.RequestCallback(l.tick)
}

// Drawn returns the number of frames drawn.
func (l *Loop) Drawn() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drawn
}

// Skipped returns the number of frames skipped while inputs loaded.
func (l *Loop) Skipped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skipped
}

// Err returns the error that stopped the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
