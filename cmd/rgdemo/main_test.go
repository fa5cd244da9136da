package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/rendergraph/config"
	"github.com/gogpu/rendergraph/pipeline"
)

func TestRenderSavesFrame(t *testing.T) {
	cfg := config.Default()
	cfg.Sample = pipeline.SampleTriangle
	cfg.Width, cfg.Height = 16, 16
	cfg.Frames = 2
	cfg.Output = filepath.Join(t.TempDir(), "frame.png")

	if err := render(cfg, nil, time.Second); err != nil {
		t.Fatalf("render: %v", err)
	}
	if fi, err := os.Stat(cfg.Output); err != nil || fi.Size() == 0 {
		t.Fatalf("output not written: %v", err)
	}
}

func TestRenderGivesUpOnMissingTexture(t *testing.T) {
	cfg := config.Default()
	cfg.Sample = pipeline.SampleTexturedCube
	cfg.Width, cfg.Height = 16, 16
	cfg.Frames = 2
	cfg.Textures.Root = t.TempDir()
	cfg.Textures.ColorMap = "missing.png"
	cfg.Output = filepath.Join(t.TempDir(), "frame.png")

	done := make(chan error, 1)
	go func() { done <- render(cfg, nil, 20*time.Millisecond) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "no frame drawn") {
			t.Fatalf("render = %v, want no frame drawn", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("render did not give up on a texture that never loads")
	}
	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Errorf("output written for a run that drew nothing: %v", err)
	}
}
