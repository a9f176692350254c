package blob

import (
	"math"
	"math/rand"

	"github.com/san-kum/backdrop/internal/palette"
)

// Simulation seeds and advances blob states. It owns its random source and
// is not safe for concurrent use.
type Simulation struct {
	opts Options
	rng  *rand.Rand
}

// New returns a simulation. A nil rng gets a fixed-seed source.
func New(opts Options, rng *rand.Rand) *Simulation {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Simulation{opts: opts.withDefaults(), rng: rng}
}

func (s *Simulation) Options() Options { return s.opts }

// Count returns how many blobs a surface of the given width hosts: one per
// band, capped at MaxBlobs.
func (s *Simulation) Count(width float64) int {
	if width <= 0 || math.IsNaN(width) {
		return 0
	}
	n := int(math.Ceil(width / s.opts.BandWidth))
	if n > s.opts.MaxBlobs {
		n = s.opts.MaxBlobs
	}
	return n
}

// Seed lays out count blobs over a width x height surface. The width is
// split into count equal bands and each blob starts somewhere inside its
// own band. A non-positive count or size yields an empty state.
func (s *Simulation) Seed(count int, width, height float64, p palette.Palette, speed float64) *State {
	st := &State{Width: width, Height: height}
	if count <= 0 || width <= 0 || height <= 0 {
		return st
	}
	if count > s.opts.MaxBlobs {
		count = s.opts.MaxBlobs
	}
	st.Blobs = make([]Blob, count, s.opts.MaxBlobs)

	band := width / float64(count)
	scale := s.radiusScale(width)
	maxRadius := math.Min(width, height) / 2
	v := s.opts.InitialSpeed * speed

	for i := range st.Blobs {
		r := scale * (s.opts.RadiusMin + s.rng.Float64()*(s.opts.RadiusMax-s.opts.RadiusMin))
		st.Blobs[i] = Blob{
			X:      band*float64(i) + s.rng.Float64()*band,
			Y:      s.rng.Float64() * height,
			VX:     (s.rng.Float64() - 0.5) * v,
			VY:     (s.rng.Float64() - 0.5) * v,
			Radius: math.Min(r, maxRadius),
		}
	}
	Retint(st, p)
	return st
}

func (s *Simulation) radiusScale(width float64) float64 {
	if s.opts.ReferenceWidth <= 0 {
		return 1
	}
	return math.Max(minRadiusScale, math.Min(maxRadiusScale, width/s.opts.ReferenceWidth))
}

// Step advances every blob by one frame in place.
func (s *Simulation) Step(st *State, speed float64) {
	if st.Empty() {
		return
	}
	limit := s.opts.MaxSpeed * speed
	jitter := s.opts.Jitter * speed

	for i := range st.Blobs {
		b := &st.Blobs[i]
		b.X += b.VX
		b.Y += b.VY

		b.X, b.VX = reflect(b.X, b.VX, b.Radius, st.Width)
		b.Y, b.VY = reflect(b.Y, b.VY, b.Radius, st.Height)

		b.VX = clamp(b.VX+(s.rng.Float64()-0.5)*jitter, limit)
		b.VY = clamp(b.VY+(s.rng.Float64()-0.5)*jitter, limit)
	}
}

// reflect keeps a disc of radius r inside [0, extent] along one axis.
func reflect(pos, vel, r, extent float64) (float64, float64) {
	if pos-r < 0 {
		return r, math.Abs(vel)
	}
	if pos+r > extent {
		return extent - r, -math.Abs(vel)
	}
	return pos, vel
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// Retint reassigns colors by index without touching position, velocity or
// radius. An empty palette leaves the colors as they are.
func Retint(st *State, p palette.Palette) {
	n := len(p.Colors)
	if st.Empty() || n == 0 {
		return
	}
	for i := range st.Blobs {
		st.Blobs[i].Color = p.Colors[i%n]
	}
}
