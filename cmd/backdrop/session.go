package main

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/backdrop/internal/automation"
	"github.com/san-kum/backdrop/internal/config"
	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
	"github.com/san-kum/backdrop/internal/palette"
)

// loadConfig builds the effective configuration: config file (or
// defaults), then the preset, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" && !cfg.Apply(preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("theme-file") {
		cfg.ThemeFile = themeFile
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("opacity") {
		cfg.Opacity = opacity
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("reduced-motion") {
		cfg.ReducedMotion = reducedMotion
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setupLogging() {
	if !verbose {
		return
	}
	engine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// session is one engine wired to a host loop, a viewport and a theme
// source.
type session struct {
	cfg   *config.Config
	bg    color.RGBA
	loop  *host.Loop
	vp    *host.Viewport
	theme *host.ThemeSignal
	mgr   *engine.Manager
	pals  *palette.Resolver

	file *host.FileSignal
}

func newSession(cfg *config.Config, w, h int) (*session, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:  cfg,
		bg:   bg,
		pals: opts.Palettes,
		loop: host.NewLoop(cfg.FPS),
		vp:   host.NewViewport(w, h),
	}
	if cfg.ThemeFile != "" {
		s.file, err = host.NewFileSignal(cfg.ThemeFile, s.loop.Post)
		if err != nil {
			return nil, err
		}
		s.file.OnError(func(err error) {
			engine.Logger().Warn("theme file", "path", s.file.Path(), "err", err)
		})
		s.theme = s.file.ThemeSignal
	} else {
		s.theme = host.NewThemeSignal(cfg.Theme)
	}

	s.mgr = engine.New(s.loop, s.vp, s.theme, opts)
	return s, nil
}

func (s *session) themes() []string { return s.pals.Names() }

func (s *session) Close() error {
	s.mgr.Teardown()
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// runFrames drives the loop without pacing until n frames were rendered.
// Scenario steps run before the tick their frame names. A paused or
// hidden effect stops producing frames, so the tick count is bounded.
func (s *session) runFrames(n int, sc *automation.Scenario) (time.Duration, error) {
	if err := s.mgr.Start(); err != nil {
		return 0, err
	}
	player := automation.NewPlayer(sc, automation.Hooks{
		SetTheme:         s.theme.Set,
		Resize:           s.vp.Resize,
		SetReducedMotion: s.mgr.SetReducedMotion,
	})
	player.Advance(0)
	if p := s.mgr.Palette(); p.Hidden && player.Done() {
		return 0, fmt.Errorf("theme %q hides the effect; nothing to render", p.Name)
	}

	start := time.Now()
	for t := 0; t < 2*n && s.mgr.Frames() < n; t++ {
		player.Advance(t)
		s.loop.Tick()
	}
	if s.mgr.Frames() == 0 {
		return 0, errors.New("no frames rendered")
	}
	return time.Since(start), nil
}
