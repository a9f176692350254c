// Package term previews the effect in a terminal using half-block cells:
// each character cell shows two vertically stacked effect pixels.
package term

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
	"github.com/san-kum/backdrop/internal/metrics"
	"github.com/san-kum/backdrop/internal/viz"
)

const (
	// DefaultScale is the number of effect pixels per terminal column.
	DefaultScale = 8
	statusLines  = 2
	sparkWidth   = 24
)

type Options struct {
	Background color.RGBA
	Scale      int
	Themes     []string
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the Bubble Tea model of the preview. The engine must already
// be started against the same loop, viewport and theme signal.
type Model struct {
	opts  Options
	mgr   *engine.Manager
	loop  *host.Loop
	vp    *host.Viewport
	theme *host.ThemeSignal
	ft    *metrics.FrameTime

	cols, rows int
	flat       *image.RGBA
	cells      *image.RGBA
}

func NewModel(mgr *engine.Manager, loop *host.Loop, vp *host.Viewport, theme *host.ThemeSignal, opts Options) *Model {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	ft := metrics.NewRecentFrameTime(sparkWidth)
	mgr.AddObserver(metrics.Set{ft})
	return &Model{
		opts:  opts,
		mgr:   mgr,
		loop:  loop,
		vp:    vp,
		theme: theme,
		ft:    ft,
	}
}

func (m *Model) Init() tea.Cmd { return tick(m.loop.Interval()) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.cols = max(0, msg.Width)
		m.rows = max(0, msg.Height-statusLines)
		m.vp.Resize(m.cols*m.opts.Scale, m.rows*2*m.opts.Scale)
		return m, nil
	case tickMsg:
		m.loop.Tick()
		return m, tick(m.loop.Interval())
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.mgr.Teardown()
		return m, tea.Quit
	case "t":
		if m.theme != nil {
			m.theme.Cycle(m.opts.Themes)
		}
	case "m":
		m.mgr.SetReducedMotion(!m.mgr.ReducedMotion())
	}
	return m, nil
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(m.renderCells())
	s.WriteString(m.status())
	return s.String()
}

// renderCells downsamples the flattened frame to one pixel per half cell.
func (m *Model) renderCells() string {
	surf := m.mgr.Surface()
	if m.cols == 0 || m.rows == 0 || !surf.Ready() {
		return strings.Repeat("\n", m.rows)
	}
	m.flat = surf.FlattenInto(m.flat, m.opts.Background)
	if m.cells == nil || m.cells.Rect.Dx() != m.cols || m.cells.Rect.Dy() != m.rows*2 {
		m.cells = image.NewRGBA(image.Rect(0, 0, m.cols, m.rows*2))
	}
	draw.ApproxBiLinear.Scale(m.cells, m.cells.Bounds(), m.flat, m.flat.Bounds(), draw.Src, nil)
	return HalfBlocks(m.cells)
}

// HalfBlocks renders img with an upper-half block per cell: the top pixel
// as foreground and the bottom pixel as background.
func HalfBlocks(img *image.RGBA) string {
	b := img.Bounds()
	var s strings.Builder
	for y := b.Min.Y; y+1 < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top, bottom := img.RGBAAt(x, y), img.RGBAAt(x, y+1)
			s.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom))).
				Render("▀"))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (m *Model) status() string {
	p := m.mgr.Palette()
	t := viz.ThemeFor(p)

	var state string
	switch {
	case p.Hidden:
		state = viz.StatusHidden.Render("hidden")
	case m.mgr.State() == engine.Paused:
		state = viz.StatusPaused.Render("paused")
	default:
		state = viz.StatusRunning.Render(m.mgr.State().String())
	}

	name := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render(p.Name)
	line := fmt.Sprintf("%s %s %s %s",
		name, state,
		viz.Subtle.Render(fmt.Sprintf("blobs %d", m.mgr.Blobs().Len())),
		viz.SparklineChart(m.ft.Totals(), sparkWidth))
	return line + "\n" + viz.KeyHint.Render("t theme · m motion · q quit")
}

// Run starts the engine and blocks in the Bubble Tea program until the
// user quits.
func Run(mgr *engine.Manager, loop *host.Loop, vp *host.Viewport, theme *host.ThemeSignal, opts Options) error {
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer mgr.Teardown()

	p := tea.NewProgram(NewModel(mgr, loop, vp, theme, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
