package record

import (
	"bytes"
	"errors"
	"image/color"
	"image/gif"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/san-kum/backdrop/internal/compositor"
	"github.com/san-kum/backdrop/internal/engine"
)

var black = color.RGBA{A: 0xff}

func testSurface(t *testing.T, w, h int) *compositor.Surface {
	t.Helper()
	s, err := compositor.NewSurface(w, h)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	pix := s.Pixels()
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 16, 185, 129, 200
	}
	return s
}

func TestGIFRecorderThrottleAndLimit(t *testing.T) {
	s := testSurface(t, 40, 30)
	r := NewGIFRecorder(GIFOptions{Background: black, Every: 2, MaxFrames: 3})

	for i := 1; i <= 10; i++ {
		r.OnFrame(engine.Frame{Index: i, Surface: s})
	}
	if r.Len() != 3 {
		t.Errorf("captured %d frames, want 3", r.Len())
	}
}

func TestGIFRecorderEncode(t *testing.T) {
	s := testSurface(t, 64, 32)
	r := NewGIFRecorder(GIFOptions{Background: black, Width: 32})
	for i := 1; i <= 4; i++ {
		r.OnFrame(engine.Frame{Index: i, Surface: s})
	}

	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(g.Image) != 4 {
		t.Fatalf("decoded %d frames, want 4", len(g.Image))
	}
	b := g.Image[0].Bounds()
	if b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("frame size %dx%d, want 32x16", b.Dx(), b.Dy())
	}
	if g.Delay[0] != 2 {
		t.Errorf("delay = %d, want default 2", g.Delay[0])
	}
}

func TestGIFRecorderSkipsUnreadySurface(t *testing.T) {
	r := NewGIFRecorder(GIFOptions{})
	r.OnFrame(engine.Frame{})
	if r.Len() != 0 {
		t.Error("captured a frame without a surface")
	}
	if err := r.Encode(&bytes.Buffer{}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("Encode err = %v, want ErrNoFrames", err)
	}
}

func TestGIFRecorderSave(t *testing.T) {
	s := testSurface(t, 20, 20)
	r := NewGIFRecorder(GIFOptions{Background: black})
	r.OnFrame(engine.Frame{Surface: s})

	path := filepath.Join(t.TempDir(), "out.gif")
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open saved gif: %v", err)
	}
	if img.Bounds().Dx() != 20 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestSnapshot(t *testing.T) {
	s := testSurface(t, 30, 10)
	snap := NewSnapshot(black)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := snap.Save(path); !errors.Is(err, ErrNoFrames) {
		t.Errorf("save before any frame: %v", err)
	}

	snap.OnFrame(engine.Frame{Surface: s})
	got := snap.Image().RGBAAt(0, 0)
	want := color.RGBA{R: 13, G: 145, B: 101, A: 255}
	if got != want {
		t.Errorf("flattened pixel = %v, want %v", got, want)
	}

	if err := snap.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 10 {
		t.Errorf("saved size %v", b)
	}
}

func TestSaveSurface(t *testing.T) {
	s := testSurface(t, 8, 8)
	path := filepath.Join(t.TempDir(), "s.png")
	if err := SaveSurface(s, black, path); err != nil {
		t.Fatal(err)
	}
	if err := SaveSurface(nil, black, path); !errors.Is(err, ErrNoFrames) {
		t.Errorf("nil surface err = %v", err)
	}
}
