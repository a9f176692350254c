package config

import (
	"sort"

	"github.com/san-kum/backdrop/internal/host"
)

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"calm": {
		Description: "slow drift, softer light",
		apply: func(c *Config) {
			c.Speed = 0.5
			c.Opacity = 0.8
			c.Compositor.NoiseEvery = 8
		},
	},
	"lively": {
		Description: "fast, restless blobs",
		apply: func(c *Config) {
			c.Speed = 2
			c.Blobs.Jitter = 0.02
			c.Blobs.BandWidth = 300
		},
	},
	"lowpower": {
		Description: "30 fps, fewer blobs, coarse blur, no grain",
		apply: func(c *Config) {
			c.FPS = 30
			c.Blobs.MaxBlobs = 4
			c.Compositor.BlurDownsample = 8
			c.Compositor.NoiseEvery = 0
		},
	},
	"static": {
		Description: "reduced motion: one still frame",
		apply: func(c *Config) {
			c.ReducedMotion = host.MotionOn
		},
	},
}

// GetPreset returns the default configuration with the named preset
// applied, or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

// Apply applies the named preset on top of c.
func (c *Config) Apply(name string) bool {
	p, ok := Presets[name]
	if !ok {
		return false
	}
	p.apply(c)
	return true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
