// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads demo configuration from TOML or YAML files and
// exposes the blur radius factor as a live parameter that follows edits
// of the file.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/rendergraph/blur"
	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/texture"
)

// ErrInvalid is returned for configuration that fails validation or
// cannot be parsed.
var ErrInvalid = errors.New("config: invalid configuration")

// Format is a configuration file syntax.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format of %s", ErrInvalid, path)
	}
}

// Backends lists the accepted backend names.
var Backends = []string{"soft", "gpu"}

// Config is the demo configuration.
type Config struct {
	Sample  string `toml:"sample" yaml:"sample"`
	Backend string `toml:"backend" yaml:"backend"`
	Width   int    `toml:"width" yaml:"width"`
	Height  int    `toml:"height" yaml:"height"`

	// Frames is the number of frames to draw; 0 runs until interrupted.
	Frames int    `toml:"frames" yaml:"frames"`
	Output string `toml:"output" yaml:"output"`

	Blur     Blur     `toml:"blur" yaml:"blur"`
	Textures Textures `toml:"textures" yaml:"textures"`
	Orbits   Orbits   `toml:"orbits" yaml:"orbits"`
}

// Blur configures the post-process blur.
type Blur struct {
	RadiusFactor float32 `toml:"radius_factor" yaml:"radius_factor"`

	// Sigma is the kernel standard deviation in texels; 0 selects the
	// default kernel.
	Sigma float64 `toml:"sigma" yaml:"sigma"`
}

// Textures locates the cube textures. Relative paths and bare names are
// resolved against Root with a file decoder; http and https URLs are
// downloaded.
type Textures struct {
	ColorMap  string `toml:"color_map" yaml:"color_map"`
	NormalMap string `toml:"normal_map" yaml:"normal_map"`
	Root      string `toml:"root" yaml:"root"`
	MaxSize   int    `toml:"max_size" yaml:"max_size"`
}

// Orbits configures the orbiting cubes sample.
type Orbits struct {
	Count int    `toml:"count" yaml:"count"`
	Seed  uint64 `toml:"seed" yaml:"seed"`
}

// Default returns the configuration used for fields a file leaves out.
func Default() Config {
	return Config{
		Sample:  pipeline.SampleBlur,
		Backend: "soft",
		Width:   512,
		Height:  512,
		Frames:  60,
		Output:  "frame.png",
		Blur:    Blur{RadiusFactor: 1},
		Textures: Textures{
			ColorMap:  pipeline.DefaultColorMapURL,
			NormalMap: pipeline.DefaultNormalMapURL,
			MaxSize:   1024,
		},
		Orbits: Orbits{Count: pipeline.DefaultOrbitCount, Seed: 1},
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads a configuration in format on top of Default and validates
// it. Unknown keys are errors.
func Decode(r io.Reader, format Format) (Config, error) {
	c := Default()
	var err error
	switch format {
	case TOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&c)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalid, format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
	}
	switch {
	case !slices.Contains(pipeline.Samples, c.Sample):
		return bad("unknown sample %q, want one of %s", c.Sample, strings.Join(pipeline.Samples, ", "))
	case !slices.Contains(Backends, c.Backend):
		return bad("unknown backend %q, want one of %s", c.Backend, strings.Join(Backends, ", "))
	case c.Width <= 0 || c.Height <= 0 || c.Width > 8192 || c.Height > 8192:
		return bad("size %dx%d out of range", c.Width, c.Height)
	case c.Frames < 0:
		return bad("negative frame count %d", c.Frames)
	case math32.IsNaN(c.Blur.RadiusFactor) || c.Blur.RadiusFactor < 0 || c.Blur.RadiusFactor > math.MaxFloat32:
		return bad("blur radius factor %v must be finite and not negative", c.Blur.RadiusFactor)
	case c.Blur.Sigma < 0:
		return bad("negative blur sigma %v", c.Blur.Sigma)
	case c.Textures.MaxSize < 0:
		return bad("negative texture max size %d", c.Textures.MaxSize)
	case c.Orbits.Count < 0:
		return bad("negative orbit count %d", c.Orbits.Count)
	}
	return nil
}

// Kernel returns the blur kernel selected by Sigma.
func (b Blur) Kernel() blur.Kernel {
	if b.Sigma == 0 {
		return blur.Default()
	}
	return blur.NewKernel(b.Sigma)
}

// Decoder returns the image decoder for the texture locations: HTTP for
// URLs, files under Root otherwise.
func (t Textures) Decoder() texture.Decoder {
	files := texture.FileDecoder{Root: t.Root}
	web := texture.HTTPDecoder{}
	return texture.DecoderFunc(func(ctx context.Context, url string) (image.Image, error) {
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			return web.Decode(ctx, url)
		}
		return files.Decode(ctx, url)
	})
}

// Pipeline returns the pipeline configuration. factor supplies the blur
// radius factor; nil selects the configured constant.
func (c Config) Pipeline(loader *texture.Loader, factor pipeline.Param) pipeline.Config {
	if factor == nil {
		factor = pipeline.Fixed(c.Blur.RadiusFactor)
	}
	tex := pipeline.Textures{
		Loader:    loader,
		ColorMap:  c.Textures.ColorMap,
		NormalMap: c.Textures.NormalMap,
	}
	return pipeline.Config{
		Sample:   c.Sample,
		Textures: tex,
		Orbits:   pipeline.OrbitsConfig{Count: c.Orbits.Count, Seed: c.Orbits.Seed},
		Blur: pipeline.BlurConfig{
			Textures:     tex,
			Kernel:       c.Blur.Kernel(),
			RadiusFactor: factor,
		},
	}
}
