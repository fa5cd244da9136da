// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/rendergraph"
)

// Live is the blur radius factor of a configuration file, reloaded
// whenever the file changes. It implements pipeline.Param. Value is safe
// to call from the render goroutine while the watcher updates it.
type Live struct {
	path    string
	bits    atomic.Uint32
	reloads atomic.Uint64
	watcher *fsnotify.Watcher

	done      chan struct{}
	closeOnce sync.Once
}

// Watch loads path and starts watching it. Edits that do not parse or
// validate are logged and ignored; the last good value stays in effect.
func Watch(path string) (*Live, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// Watch the directory: editors often replace the file by renaming.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	l := &Live{
		path:    filepath.Clean(path),
		watcher: w,
		done:    make(chan struct{}),
	}
	l.store(c.Blur.RadiusFactor)
	go l.run()
	return l, nil
}

func (l *Live) store(v float32) {
	l.bits.Store(math.Float32bits(v))
}

// Value returns the current radius factor.
func (l *Live) Value() float32 {
	return math.Float32frombits(l.bits.Load())
}

// Reloads returns how many edits have been applied.
func (l *Live) Reloads() uint64 {
	return l.reloads.Load()
}

func (l *Live) run() {
	defer close(l.done)
	log := rendergraph.Logger()
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != l.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			c, err := Load(l.path)
			if err != nil {
				log.Warn("config: ignoring invalid edit", "path", l.path, "err", err)
				continue
			}
			l.store(c.Blur.RadiusFactor)
			l.reloads.Add(1)
			log.Info("config: reloaded", "path", l.path, "blur_radius_factor", c.Blur.RadiusFactor)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config: watcher error", "path", l.path, "err", err)
		}
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (l *Live) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.watcher.Close()
		<-l.done
	})
	return err
}
