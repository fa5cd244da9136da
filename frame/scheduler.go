// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame schedules per-frame callbacks against a vertical-sync
// source.
//
// Callbacks are one-shot: a callback that wants the next frame requests
// itself again. Run stops once a tick leaves nothing pending.
package frame

import (
	"context"
	"sync"
	"time"

	"github.com/gogpu/rendergraph"
)

// Callback receives the frame timestamp, measured from an arbitrary
// origin of the vsync source.
type Callback func(now time.Duration)

// VSync paces frames. Wait blocks until the next vertical sync and
// returns its timestamp.
type VSync interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// Scheduler runs requested callbacks once per tick.
//
// RequestCallback is safe for concurrent use. Tick and Run must be
// called from one goroutine, the one owning the graphics context.
type Scheduler struct {
	mu      sync.Mutex
	pending []Callback
	last    time.Duration
	ticks   uint64
}

// NewScheduler returns a scheduler with nothing pending.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RequestCallback schedules fn for the next tick. A callback requested
// while a tick is running waits for the following one.
func (s *Scheduler) RequestCallback(fn Callback) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Pending returns the number of callbacks waiting for a tick.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Tick runs the callbacks requested before it, in request order, and
// returns how many ran. Timestamps never decrease: a now earlier than
// the previous tick is raised to it.
func (s *Scheduler) Tick(now time.Duration) int {
	s.mu.Lock()
	if now < s.last {
		now = s.last
	}
	s.last = now
	s.ticks++
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn(now)
	}
	return len(batch)
}

// Run ticks on every vertical sync until ctx is done or a tick leaves no
// callback pending. It returns nil in the latter case.
func (s *Scheduler) Run(ctx context.Context, vsync VSync) error {
	log := rendergraph.Logger()
	for s.Pending() > 0 {
		now, err := vsync.Wait(ctx)
		if err != nil {
			return err
		}
		s.Tick(now)
	}
	s.mu.Lock()
	ticks := s.ticks
	s.mu.Unlock()
	log.Debug("frame: scheduler idle", "ticks", ticks)
	return nil
}
