// Package compositor turns a blob state into pixels.
//
// Each frame draws one soft radial gradient per blob into the off-screen
// buffer, then composites that buffer onto the visible buffer in a few
// blur passes of decreasing radius and increasing opacity. Passes are
// blurred and blended at the downsampled size and scaled up once. Every
// few frames a strided grain is sprinkled over the visible pixels to hide
// banding.
package compositor

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/san-kum/backdrop/internal/blob"
	"github.com/san-kum/backdrop/internal/palette"
)

// Pass is one blur-and-composite of the off-screen buffer. Blur is the
// gaussian sigma in surface pixels.
type Pass struct {
	Blur    float64 `yaml:"blur"`
	Opacity float64 `yaml:"opacity"`
}

type Options struct {
	// Passes run in order. nil selects the default pair; an empty slice
	// composites nothing.
	Passes []Pass `yaml:"passes"`
	// BlurDownsample is the factor the off-screen buffer is shrunk by
	// before blurring.
	BlurDownsample int `yaml:"blur_downsample"`
	// NoiseEvery adds grain on every n-th rendered frame. 0 disables it.
	NoiseEvery     int     `yaml:"noise_every"`
	NoiseStride    int     `yaml:"noise_stride"`
	NoiseAmplitude float64 `yaml:"noise_amplitude"`
	// Opacity multiplies every pass opacity.
	Opacity float64 `yaml:"-"`
}

const (
	DefaultBlurDownsample = 4
	DefaultNoiseEvery     = 5
	DefaultNoiseStride    = 4
	DefaultNoiseAmplitude = 10.0

	// lutSize is the number of gradient samples taken along a radius.
	lutSize = 256
)

func DefaultPasses() []Pass {
	return []Pass{
		{Blur: 60, Opacity: 0.4},
		{Blur: 30, Opacity: 0.8},
	}
}

func DefaultOptions() Options {
	return Options{
		Passes:         DefaultPasses(),
		BlurDownsample: DefaultBlurDownsample,
		NoiseEvery:     DefaultNoiseEvery,
		NoiseStride:    DefaultNoiseStride,
		NoiseAmplitude: DefaultNoiseAmplitude,
		Opacity:        1,
	}
}

func (o Options) withDefaults() Options {
	if o.Passes == nil {
		o.Passes = DefaultPasses()
	}
	if o.BlurDownsample <= 0 {
		o.BlurDownsample = 1
	}
	if o.NoiseEvery < 0 {
		o.NoiseEvery = 0
	}
	if o.NoiseStride <= 0 {
		o.NoiseStride = DefaultNoiseStride
	}
	if o.NoiseAmplitude < 0 {
		o.NoiseAmplitude = DefaultNoiseAmplitude
	}
	if o.Opacity <= 0 {
		o.Opacity = 1
	}
	return o
}

// Compositor renders blob states onto a Surface. It keeps a frame counter
// for noise throttling and is not safe for concurrent use.
type Compositor struct {
	opts   Options
	rng    *rand.Rand
	frames int
	lut    [lutSize]gg.RGBA

	// acc holds the blended passes at the downsampled size and full their
	// upscale, both premultiplied. Reused across frames.
	acc  *image.RGBA
	full *image.RGBA
}

// New returns a compositor. A nil rng gets a fixed-seed source.
func New(opts Options, rng *rand.Rand) *Compositor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Compositor{opts: opts.withDefaults(), rng: rng}
}

func (c *Compositor) Options() Options { return c.opts }

// Frames returns how many non-empty frames have been rendered.
func (c *Compositor) Frames() int { return c.frames }

// Render draws one frame. A nil or not-ready surface is skipped; an empty
// state only clears the surface.
func (c *Compositor) Render(s *Surface, st *blob.State) {
	if !s.Ready() {
		return
	}
	s.Clear()
	if st.Empty() {
		return
	}

	c.drawBlobs(s, st)
	c.composite(s)

	c.frames++
	if c.opts.NoiseEvery > 0 && c.frames%c.opts.NoiseEvery == 0 {
		c.addNoise(s.Pixels())
	}
}

// drawBlobs blends one radial gradient per blob into the premultiplied
// off-screen buffer.
// The gradient is sampled once per blob along its radius and looked up by
// distance per pixel.
func (c *Compositor) drawBlobs(s *Surface, st *blob.State) {
	w, h := s.Size()
	pix := s.offscreenPixels()

	for _, b := range st.Blobs {
		if b.Radius <= 0 {
			continue
		}
		c.sampleGradient(b)

		x0 := max(0, int(math.Floor(b.X-b.Radius)))
		x1 := min(w-1, int(math.Ceil(b.X+b.Radius)))
		y0 := max(0, int(math.Floor(b.Y-b.Radius)))
		y1 := min(h-1, int(math.Ceil(b.Y+b.Radius)))
		r2 := b.Radius * b.Radius
		scale := float64(lutSize-1) / b.Radius

		for y := y0; y <= y1; y++ {
			dy := float64(y) + 0.5 - b.Y
			for x := x0; x <= x1; x++ {
				dx := float64(x) + 0.5 - b.X
				d2 := dx*dx + dy*dy
				if d2 >= r2 {
					continue
				}
				col := c.lut[int(math.Sqrt(d2)*scale)]
				blendOver(pix[(y*w+x)*4:], col)
			}
		}
	}
}

func (c *Compositor) sampleGradient(b blob.Blob) {
	brush := gradientFor(b)
	for i := range c.lut {
		c.lut[i] = brush.ColorAt(b.X+b.Radius*float64(i)/float64(lutSize-1), b.Y)
	}
}

// gradientFor fades the blob color from a bright core through a dimmer
// ring to transparent at the rim. With the 0.3 base alpha the stops are
// 0.4, 0.2 and 0.
func gradientFor(b blob.Blob) *gg.RadialGradientBrush {
	a := b.Color.A
	return gg.NewRadialGradientBrush(b.X, b.Y, 0, b.Radius).
		AddColorStop(0, toRGBA(b.Color, a*4/3)).
		AddColorStop(0.5, toRGBA(b.Color, a*2/3)).
		AddColorStop(1, toRGBA(b.Color, 0))
}

func toRGBA(c palette.Color, a float64) gg.RGBA {
	return gg.RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: math.Min(1, math.Max(0, a)),
	}
}

// blendOver composites the straight-alpha src over the premultiplied
// pixel dst[0:4].
func blendOver(dst []uint8, src gg.RGBA) {
	sa := src.A
	if sa <= 0 {
		return
	}
	k := 1 - sa
	dst[0] = to8(src.R*sa + float64(dst[0])/255*k)
	dst[1] = to8(src.G*sa + float64(dst[1])/255*k)
	dst[2] = to8(src.B*sa + float64(dst[2])/255*k)
	dst[3] = to8(sa + float64(dst[3])/255*k)
}

func to8(v float64) uint8 {
	v = v*255 + 0.5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// composite blurs a downsampled copy of the off-screen buffer once per
// pass, blends the passes over each other at that size and writes the
// upscaled result to the visible buffer as straight alpha.
func (c *Compositor) composite(s *Surface) {
	if len(c.opts.Passes) == 0 {
		return
	}
	w, h := s.Size()
	d := c.opts.BlurDownsample
	sw, sh := max(1, w/d), max(1, h/d)

	var small image.Image = s.offscreenImage()
	if d > 1 {
		small = imaging.Resize(small, sw, sh, imaging.Box)
	}

	c.acc = resetRGBA(c.acc, sw, sh)
	drawn := false
	for _, p := range c.opts.Passes {
		op := math.Min(1, p.Opacity*c.opts.Opacity)
		if op <= 0 {
			continue
		}
		blurred := imaging.Blur(small, p.Blur/float64(d))
		mask := image.NewUniform(color.Alpha{A: uint8(op*255 + 0.5)})
		draw.DrawMask(c.acc, c.acc.Rect, blurred, image.Point{}, mask, image.Point{}, draw.Over)
		drawn = true
	}
	if !drawn {
		return
	}

	out := c.acc
	if sw != w || sh != h {
		c.full = resetRGBA(c.full, w, h)
		draw.ApproxBiLinear.Scale(c.full, c.full.Rect, c.acc, c.acc.Rect, draw.Src, nil)
		out = c.full
	}
	unpremultiply(s.visible.Pix, out.Pix)
}

// resetRGBA returns a cleared w×h image, reusing img when it fits.
func resetRGBA(img *image.RGBA, w, h int) *image.RGBA {
	if img == nil || img.Rect.Dx() != w || img.Rect.Dy() != h {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	clear(img.Pix)
	return img
}

// unpremultiply converts premultiplied src into straight-alpha dst. Both
// must have the same length.
func unpremultiply(dst, src []uint8) {
	for i := 0; i+3 < len(src); i += 4 {
		a := uint32(src[i+3])
		switch a {
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		case 0xff:
			copy(dst[i:i+4], src[i:i+4])
		default:
			for ch := 0; ch < 3; ch++ {
				dst[i+ch] = uint8(min(0xff, (uint32(src[i+ch])*0xff+a/2)/a))
			}
			dst[i+3] = uint8(a)
		}
	}
}

// addNoise offsets the color channels of every NoiseStride-th pixel by one
// value in [-amp/2, amp/2), the same for R, G and B, rounding the result.
func (c *Compositor) addNoise(pix []uint8) {
	amp := c.opts.NoiseAmplitude
	if amp == 0 {
		return
	}
	step := c.opts.NoiseStride * 4
	for i := 0; i+3 < len(pix); i += step {
		n := (c.rng.Float64() - 0.5) * amp
		for ch := 0; ch < 3; ch++ {
			pix[i+ch] = clamp8(math.Round(float64(pix[i+ch]) + n))
		}
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
