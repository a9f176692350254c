// Package blob simulates the soft circular regions that drift behind the
// page.
//
// A [State] is a fixed-capacity arena allocated once per seed; [Simulation.Step]
// and [Retint] mutate it in place so the frame loop never allocates.
//
// # Invariants
//
// After every Step, for each blob:
//
//	Radius <= X <= width-Radius,  Radius <= Y <= height-Radius
//	|VX| <= MaxSpeed*speed,       |VY| <= MaxSpeed*speed
//
// A wall hit clamps the position to the wall and points the perpendicular
// velocity component back inside, which never adds energy.
package blob

import "github.com/san-kum/backdrop/internal/palette"

type Blob struct {
	X, Y   float64
	VX, VY float64
	Radius float64
	Color  palette.Color
}

// State holds the blobs seeded for one surface size.
type State struct {
	Blobs  []Blob
	Width  float64
	Height float64
}

// Len is safe on a nil state.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Blobs)
}

// Empty reports whether there is nothing to simulate or draw.
func (s *State) Empty() bool { return s.Len() == 0 }

// Options tunes seeding and motion. The defaults reproduce the original
// effect.
type Options struct {
	MaxBlobs       int     `yaml:"max"`
	BandWidth      float64 `yaml:"band_width"`
	RadiusMin      float64 `yaml:"radius_min"`
	RadiusMax      float64 `yaml:"radius_max"`
	ReferenceWidth float64 `yaml:"reference_width"` // <= 0 disables radius scaling
	InitialSpeed   float64 `yaml:"initial_speed"`
	Jitter         float64 `yaml:"jitter"`
	MaxSpeed       float64 `yaml:"max_speed"`
}

const (
	DefaultMaxBlobs       = 8
	DefaultBandWidth      = 400.0
	DefaultRadiusMin      = 150.0
	DefaultRadiusMax      = 400.0
	DefaultReferenceWidth = 1920.0
	DefaultInitialSpeed   = 0.3
	DefaultJitter         = 0.01
	DefaultMaxSpeed       = 1.0

	minRadiusScale = 0.5
	maxRadiusScale = 1.5
)

func DefaultOptions() Options {
	return Options{
		MaxBlobs:       DefaultMaxBlobs,
		BandWidth:      DefaultBandWidth,
		RadiusMin:      DefaultRadiusMin,
		RadiusMax:      DefaultRadiusMax,
		ReferenceWidth: DefaultReferenceWidth,
		InitialSpeed:   DefaultInitialSpeed,
		Jitter:         DefaultJitter,
		MaxSpeed:       DefaultMaxSpeed,
	}
}

// withDefaults fills zero fields so a partially specified Options is usable.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxBlobs <= 0 {
		o.MaxBlobs = d.MaxBlobs
	}
	if o.BandWidth <= 0 {
		o.BandWidth = d.BandWidth
	}
	if o.RadiusMin <= 0 {
		o.RadiusMin = d.RadiusMin
	}
	if o.RadiusMax <= 0 {
		o.RadiusMax = d.RadiusMax
	}
	if o.RadiusMax < o.RadiusMin {
		o.RadiusMax = o.RadiusMin
	}
	if o.InitialSpeed < 0 {
		o.InitialSpeed = d.InitialSpeed
	}
	if o.Jitter < 0 {
		o.Jitter = d.Jitter
	}
	if o.MaxSpeed <= 0 {
		o.MaxSpeed = d.MaxSpeed
	}
	return o
}
