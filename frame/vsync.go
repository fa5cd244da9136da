// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"sync"
	"time"
)

// Ticker is a VSync backed by a time.Ticker.
type Ticker struct {
	start  time.Time
	ticker *time.Ticker
}

// NewTicker returns a source firing hz times per second. hz <= 0 selects
// 60.
func NewTicker(hz int) *Ticker {
	if hz <= 0 {
		hz = 60
	}
	return &Ticker{
		start:  time.Now(),
		ticker: time.NewTicker(time.Second / time.Duration(hz)),
	}
}

// Wait blocks for the next tick and returns the time since NewTicker.
func (t *Ticker) Wait(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case at := <-t.ticker.C:
		return at.Sub(t.start), nil
	}
}

// Stop releases the ticker.
func (t *Ticker) Stop() {
	t.ticker.Stop()
}

// Manual is a VSync that never blocks: every Wait advances a virtual
// clock by a fixed step. It drives headless rendering and tests.
type Manual struct {
	mu   sync.Mutex
	now  time.Duration
	step time.Duration
}

// NewManual returns a source whose first Wait reports step.
func NewManual(step time.Duration) *Manual {
	return &Manual{step: step}
}

// Wait advances the clock by one step.
func (m *Manual) Wait(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += m.step
	return m.now, nil
}

// Now returns the last reported timestamp.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
