// Command rgdemo renders one of the render graph samples and saves the
// last frame as a PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/config"
	"github.com/gogpu/rendergraph/frame"
	"github.com/gogpu/rendergraph/gfx"
	"github.com/gogpu/rendergraph/gfx/soft"
	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/texture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		path        = flag.String("config", "", "TOML or YAML config file; watched for radius_factor edits")
		sample      = flag.String("sample", "", "sample to render: "+strings.Join(pipeline.Samples, ", "))
		frames      = flag.Int("frames", 0, "frames to draw; 0 keeps the configured count")
		width       = flag.Int("width", 0, "surface width")
		height      = flag.Int("height", 0, "surface height")
		factor      = flag.Float64("blur", 0, "blur radius factor")
		backend     = flag.String("backend", "", "graphics backend: soft or gpu")
		output      = flag.String("output", "", "output PNG file")
		loadTimeout = flag.Duration("load-timeout", 30*time.Second, "how long to wait for textures before drawing")
		verbose     = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Parse()

	if *verbose {
		rendergraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := config.Default()
	var live *config.Live
	if *path != "" {
		var err error
		if live, err = config.Watch(*path); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		defer live.Close()
		if cfg, err = config.Load(*path); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sample":
			cfg.Sample = *sample
		case "frames":
			cfg.Frames = *frames
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "blur":
			cfg.Blur.RadiusFactor = float32(*factor)
			live = nil
		case "backend":
			cfg.Backend = *backend
		case "output":
			cfg.Output = *output
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	return render(cfg, live, *loadTimeout)
}

func render(cfg config.Config, live *config.Live, loadTimeout time.Duration) error {
	ctx, err := newContext(cfg)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	loader := texture.NewLoader(ctx, cfg.Textures.Decoder(), texture.WithMaxSize(cfg.Textures.MaxSize))
	var factor pipeline.Param
	if live != nil {
		factor = live
	}
	p, err := pipeline.New(ctx, cfg.Pipeline(loader, factor))
	if err != nil {
		return fmt.Errorf("build %s: %w", cfg.Sample, err)
	}
	defer p.Destroy()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A texture that fails to load keeps its passes skipping frames. A
	// bounded run gives up after loadTimeout instead of waiting forever.
	runCtx := sigCtx
	waitCtx, cancelWait := context.WithTimeout(sigCtx, loadTimeout)
	err = p.WaitLoads(waitCtx)
	cancelWait()
	if err != nil {
		log.Printf("textures not loaded: %v; frames are skipped until they are", err)
		if cfg.Frames > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(sigCtx, loadTimeout)
			defer cancel()
		}
	}

	sched := frame.NewScheduler()
	var vsync frame.VSync
	var opts []pipeline.LoopOption
	if cfg.Frames > 0 {
		bar := progressbar.Default(int64(cfg.Frames), cfg.Sample)
		defer bar.Close()
		opts = append(opts,
			pipeline.WithMaxFrames(uint64(cfg.Frames)),
			pipeline.WithFrameHook(func(uint64, time.Duration) { _ = bar.Add(1) }),
		)
		vsync = frame.NewManual(time.Second / 60)
	} else {
		ticker := frame.NewTicker(60)
		defer ticker.Stop()
		vsync = ticker
	}

	loop := pipeline.NewLoop(sched, p, opts...)
	loop.Start()
	if err := sched.Run(runCtx, vsync); err != nil && runCtx.Err() == nil {
		return err
	}
	if err := loop.Err(); err != nil {
		return err
	}
	if loop.Drawn() == 0 {
		return errors.New("no frame drawn: inputs never became ready")
	}

	img, err := ctx.ReadPixels(nil)
	if err != nil {
		return err
	}
	if err := imgio.Save(cfg.Output, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	log.Printf("%s: %d frames saved to %s (%dx%d)\n", cfg.Sample, loop.Drawn(), cfg.Output, cfg.Width, cfg.Height)
	return nil
}

func newContext(cfg config.Config) (gfx.Context, error) {
	if cfg.Backend == "gpu" {
		return newGPUContext(cfg.Width, cfg.Height)
	}
	return soft.New(cfg.Width, cfg.Height)
}
