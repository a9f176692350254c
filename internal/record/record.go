// Package record captures rendered frames as an animated GIF or a still
// image.
package record

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	colorpalette "image/color/palette"
	"image/gif"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/san-kum/backdrop/internal/compositor"
	"github.com/san-kum/backdrop/internal/engine"
)

var ErrNoFrames = errors.New("record: no frames captured")

type GIFOptions struct {
	// Background is the opaque color the translucent effect is flattened on.
	Background color.RGBA
	// Every captures one frame in n.
	Every int
	// Delay is the display time of each captured frame in 1/100 s.
	Delay int
	// MaxFrames stops capturing once reached. 0 means no limit.
	MaxFrames int
	// Width scales captured frames down to this width. 0 keeps the
	// surface width.
	Width int
}

// GIFRecorder collects dithered frames. It implements engine.Observer.
type GIFRecorder struct {
	opts   GIFOptions
	seen   int
	frames []*image.Paletted
	delays []int
	flat   *image.RGBA
	scaled *image.RGBA
}

func NewGIFRecorder(opts GIFOptions) *GIFRecorder {
	if opts.Every <= 0 {
		opts.Every = 1
	}
	if opts.Delay <= 0 {
		opts.Delay = 2
	}
	return &GIFRecorder{opts: opts}
}

func (r *GIFRecorder) OnFrame(f engine.Frame) {
	if !f.Surface.Ready() {
		return
	}
	r.seen++
	if (r.seen-1)%r.opts.Every != 0 {
		return
	}
	if r.opts.MaxFrames > 0 && len(r.frames) >= r.opts.MaxFrames {
		return
	}

	r.flat = f.Surface.FlattenInto(r.flat, r.opts.Background)
	src := r.scale(r.flat)

	b := src.Bounds()
	pal := image.NewPaletted(b, colorpalette.Plan9)
	draw.FloydSteinberg.Draw(pal, b, src, b.Min)

	r.frames = append(r.frames, pal)
	r.delays = append(r.delays, r.opts.Delay)
}

func (r *GIFRecorder) scale(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if r.opts.Width <= 0 || r.opts.Width >= w {
		return src
	}
	dh := max(1, h*r.opts.Width/w)
	if r.scaled == nil || r.scaled.Rect.Dx() != r.opts.Width || r.scaled.Rect.Dy() != dh {
		r.scaled = image.NewRGBA(image.Rect(0, 0, r.opts.Width, dh))
	}
	draw.ApproxBiLinear.Scale(r.scaled, r.scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	return r.scaled
}

func (r *GIFRecorder) Len() int { return len(r.frames) }

// Encode writes the captured frames as a looping GIF. Frames of a
// different size than the first (after a resize) are skipped.
func (r *GIFRecorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	size := r.frames[0].Bounds()
	anim := gif.GIF{LoopCount: 0}
	for i, frame := range r.frames {
		if frame.Bounds() != size {
			continue
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delays[i])
	}
	return gif.EncodeAll(w, &anim)
}

func (r *GIFRecorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Snapshot keeps a flattened copy of the latest frame. It implements
// engine.Observer.
type Snapshot struct {
	bg   color.RGBA
	last *image.RGBA
}

func NewSnapshot(bg color.RGBA) *Snapshot {
	return &Snapshot{bg: bg}
}

func (s *Snapshot) OnFrame(f engine.Frame) {
	if f.Surface.Ready() {
		s.last = f.Surface.FlattenInto(s.last, s.bg)
	}
}

func (s *Snapshot) Image() *image.RGBA { return s.last }

// Save writes the latest frame; the format follows the file extension.
func (s *Snapshot) Save(path string) error {
	if s.last == nil {
		return ErrNoFrames
	}
	return imaging.Save(s.last, path)
}

// SaveSurface writes the current visible buffer of s to path.
func SaveSurface(s *compositor.Surface, bg color.RGBA, path string) error {
	if !s.Ready() {
		return ErrNoFrames
	}
	return imaging.Save(s.Flatten(bg), path)
}
