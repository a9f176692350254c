package config

import (
	"fmt"
	"image/color"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/backdrop/internal/blob"
	"github.com/san-kum/backdrop/internal/compositor"
	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
	"github.com/san-kum/backdrop/internal/palette"
)

const (
	DefaultSpeed      = 1.0
	DefaultOpacity    = 1.0
	DefaultFPS        = 60
	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultBackground = "#0a0a0a"

	maxFPS = 240
)

type Config struct {
	Theme         string              `yaml:"theme"`
	ThemeFile     string              `yaml:"theme_file,omitempty"`
	Speed         float64             `yaml:"speed"`
	Opacity       float64             `yaml:"opacity"`
	FPS           int                 `yaml:"fps"`
	ReducedMotion string              `yaml:"reduced_motion"`
	Seed          int64               `yaml:"seed"`
	Width         int                 `yaml:"width"`
	Height        int                 `yaml:"height"`
	Background    string              `yaml:"background"`
	Blobs         blob.Options        `yaml:"blobs"`
	Compositor    compositor.Options  `yaml:"compositor"`
	Palettes      map[string][]string `yaml:"palettes,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Theme:         palette.DefaultTheme,
		Speed:         DefaultSpeed,
		Opacity:       DefaultOpacity,
		FPS:           DefaultFPS,
		ReducedMotion: host.MotionAuto,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Background:    DefaultBackground,
		Blobs:         blob.DefaultOptions(),
		Compositor:    compositor.DefaultOptions(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Speed <= 0:
		return fmt.Errorf("speed must be positive, got %g", c.Speed)
	case c.Opacity <= 0 || c.Opacity > 1:
		return fmt.Errorf("opacity must be in (0, 1], got %g", c.Opacity)
	case c.FPS <= 0 || c.FPS > maxFPS:
		return fmt.Errorf("fps must be in [1, %d], got %d", maxFPS, c.FPS)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("size must be positive, got %dx%d", c.Width, c.Height)
	case c.Compositor.NoiseEvery < 0:
		return fmt.Errorf("compositor.noise_every must not be negative")
	}
	for i, p := range c.Compositor.Passes {
		if p.Blur < 0 || p.Opacity < 0 || p.Opacity > 1 {
			return fmt.Errorf("compositor.passes[%d]: blur must be >= 0 and opacity in [0, 1]", i)
		}
	}
	if _, err := host.PrefersReducedMotion(c.ReducedMotion); err != nil {
		return err
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if _, err := c.Resolver(); err != nil {
		return err
	}
	return nil
}

// Resolver returns a palette resolver with the custom palettes added.
func (c *Config) Resolver() (*palette.Resolver, error) {
	custom := make(map[string]palette.Palette, len(c.Palettes))
	for name, hexes := range c.Palettes {
		p, err := palette.FromHex(name, hexes)
		if err != nil {
			return nil, err
		}
		custom[name] = p
	}
	return palette.NewResolver(custom), nil
}

// BackgroundColor is the opaque page color the effect is flattened onto.
func (c *Config) BackgroundColor() (color.RGBA, error) {
	p, err := palette.ParseHex(c.Background)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("background: %w", err)
	}
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}, nil
}

// EngineOptions converts the configuration for engine.New. A zero seed
// leaves the random source to the engine.
func (c *Config) EngineOptions() (engine.Options, error) {
	reduced, err := host.PrefersReducedMotion(c.ReducedMotion)
	if err != nil {
		return engine.Options{}, err
	}
	res, err := c.Resolver()
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		Speed:         c.Speed,
		Opacity:       c.Opacity,
		ReducedMotion: reduced,
		Blobs:         c.Blobs,
		Compositor:    c.Compositor,
		Palettes:      res,
	}
	if c.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(c.Seed))
	}
	return opts, nil
}
