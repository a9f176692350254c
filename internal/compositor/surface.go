package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
)

var ErrInvalidSize = errors.New("compositor: surface size must be positive")

// Surface is the pair of drawing buffers the effect renders into. The
// visible buffer holds straight-alpha RGBA and is what hosts read. The
// off-screen buffer is a gg pixmap and holds premultiplied RGBA, like
// image.RGBA.
type Surface struct {
	visible   *image.NRGBA
	offscreen *gg.Context
	width     int
	height    int
}

func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Surface{
		visible:   image.NewNRGBA(image.Rect(0, 0, width, height)),
		offscreen: gg.NewContext(width, height),
		width:     width,
		height:    height,
	}, nil
}

// Resize resizes both buffers together. A non-positive size leaves the
// surface allocated but not ready until a valid size arrives.
func (s *Surface) Resize(width, height int) error {
	if s == nil || s.visible == nil {
		return fmt.Errorf("%w: surface closed", ErrInvalidSize)
	}
	if width <= 0 || height <= 0 {
		s.width, s.height = 0, 0
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := s.offscreen.Resize(width, height); err != nil {
		return fmt.Errorf("resize off-screen buffer: %w", err)
	}
	if b := s.visible.Rect; b.Dx() != width || b.Dy() != height {
		s.visible = image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	s.width, s.height = width, height
	return nil
}

// Ready reports whether the surface can be drawn to.
func (s *Surface) Ready() bool {
	return s != nil && s.visible != nil && s.offscreen != nil && s.width > 0 && s.height > 0
}

func (s *Surface) Size() (int, int) {
	if s == nil {
		return 0, 0
	}
	return s.width, s.height
}

// Pixels returns the visible buffer's straight-alpha RGBA bytes. The
// slice is owned by the surface and is only valid until the next Resize.
func (s *Surface) Pixels() []uint8 {
	if !s.Ready() {
		return nil
	}
	return s.visible.Pix
}

// offscreenPixels returns the premultiplied off-screen bytes.
func (s *Surface) offscreenPixels() []uint8 {
	return s.offscreen.ResizeTarget().Data()
}

// offscreenImage wraps the off-screen bytes without copying.
func (s *Surface) offscreenImage() *image.RGBA {
	return &image.RGBA{
		Pix:    s.offscreenPixels(),
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// Clear makes both buffers fully transparent.
func (s *Surface) Clear() {
	if !s.Ready() {
		return
	}
	clear(s.visible.Pix)
	s.offscreen.Clear()
}

// Flatten composites the visible buffer over an opaque background.
func (s *Surface) Flatten(bg color.RGBA) *image.RGBA {
	return s.FlattenInto(nil, bg)
}

// FlattenInto is Flatten writing into dst, which is reallocated only when
// its bounds do not match the surface.
func (s *Surface) FlattenInto(dst *image.RGBA, bg color.RGBA) *image.RGBA {
	w, h := s.Size()
	if dst == nil || dst.Rect.Dx() != w || dst.Rect.Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	src := s.Pixels()
	if src == nil {
		return dst
	}
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			a := uint32(src[i+3])
			row[x*4+0] = mix(src[i+0], bg.R, a)
			row[x*4+1] = mix(src[i+1], bg.G, a)
			row[x*4+2] = mix(src[i+2], bg.B, a)
			row[x*4+3] = 0xff
		}
	}
	return dst
}

func mix(fg, bg uint8, a uint32) uint8 {
	return uint8((uint32(fg)*a + uint32(bg)*(255-a) + 127) / 255)
}

// Close releases both buffers. A closed surface is never ready again.
func (s *Surface) Close() error {
	if s == nil || s.visible == nil {
		return nil
	}
	err := s.offscreen.Close()
	s.visible, s.offscreen = nil, nil
	s.width, s.height = 0, 0
	return err
}
