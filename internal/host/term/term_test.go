package term

import (
	"image"
	"image/color"
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
)

func newTestModel(t *testing.T) (*Model, *engine.Manager, *host.ThemeSignal) {
	t.Helper()
	loop := host.NewLoop(60)
	vp := host.NewViewport(0, 0)
	theme := host.NewThemeSignal("terminal")

	opts := engine.DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	mgr := engine.New(loop, vp, theme, opts)
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Teardown)

	m := NewModel(mgr, loop, vp, theme, Options{
		Background: color.RGBA{A: 0xff},
		Themes:     []string{"terminal", "amber", "carbon"},
	})
	return m, mgr, theme
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelWaitsForWindowSize(t *testing.T) {
	m, mgr, _ := newTestModel(t)
	if mgr.State() != engine.Uninitialized {
		t.Fatalf("state = %v before any window size", mgr.State())
	}
	if strings.Contains(m.View(), "▀") {
		t.Error("drew cells without a window size")
	}
}

func TestModelResizeAndTick(t *testing.T) {
	m, mgr, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	if w, h := m.vp.Size(); w != 40*DefaultScale || h != 10*2*DefaultScale {
		t.Errorf("viewport %dx%d", w, h)
	}
	if mgr.State() != engine.Running {
		t.Fatalf("state = %v after resize, want running", mgr.State())
	}

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}
	if mgr.Frames() != 1 {
		t.Errorf("frames = %d after one tick", mgr.Frames())
	}

	view := m.View()
	if got := strings.Count(view, "▀"); got != 40*10 {
		t.Errorf("rendered %d cells, want %d", got, 40*10)
	}
	if !strings.Contains(view, "terminal") {
		t.Error("status line missing palette name")
	}
}

func TestModelKeys(t *testing.T) {
	m, mgr, theme := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 20, Height: 8})

	m.Update(runes("t"))
	if theme.Theme() != "amber" {
		t.Errorf("theme = %q after t, want amber", theme.Theme())
	}
	if mgr.Palette().Name != "amber" {
		t.Errorf("engine palette = %q", mgr.Palette().Name)
	}

	m.Update(runes("m"))
	if mgr.State() != engine.Paused {
		t.Errorf("state = %v after m, want paused", mgr.State())
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("status line does not show paused")
	}
	m.Update(runes("m"))
	if mgr.State() != engine.Running {
		t.Errorf("state = %v after second m, want running", mgr.State())
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if mgr.State() != engine.TornDown {
		t.Errorf("state = %v after quit", mgr.State())
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 4))
	out := HalfBlocks(img)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, l := range lines {
		if n := strings.Count(l, "▀"); n != 3 {
			t.Errorf("line %d has %d cells, want 3", i, n)
		}
	}
}

func TestHex(t *testing.T) {
	if got := hex(color.RGBA{R: 16, G: 185, B: 129}); got != "#10b981" {
		t.Errorf("hex = %q", got)
	}
}
