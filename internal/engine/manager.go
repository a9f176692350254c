package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/san-kum/backdrop/internal/blob"
	"github.com/san-kum/backdrop/internal/compositor"
	"github.com/san-kum/backdrop/internal/palette"
)

type State int

const (
	Uninitialized State = iota
	Running
	Paused
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case TornDown:
		return "torn-down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Frame describes one rendered frame. Surface and Blobs are only valid
// for the duration of the observer call.
type Frame struct {
	Index   int
	Surface *compositor.Surface
	Blobs   *blob.State
	Step    time.Duration
	Render  time.Duration
	Static  bool
}

// Observer is notified after every rendered frame.
type Observer interface {
	OnFrame(f Frame)
}

type Options struct {
	// Speed scales motion; Opacity scales every composite pass. Zero
	// means 1.
	Speed   float64
	Opacity float64
	// ReducedMotion starts the manager in Paused.
	ReducedMotion bool

	Blobs      blob.Options
	Compositor compositor.Options

	Palettes *palette.Resolver
	Rand     *rand.Rand
	Acquire  AcquireFunc
	Now      func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Speed:      1,
		Opacity:    1,
		Blobs:      blob.DefaultOptions(),
		Compositor: compositor.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	if o.Speed <= 0 {
		o.Speed = 1
	}
	if o.Opacity <= 0 {
		o.Opacity = 1
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Acquire == nil {
		o.Acquire = compositor.NewSurface
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Compositor.Opacity = o.Opacity
	return o
}

// Manager runs the effect for one mount. It is not reusable after
// Teardown and not safe for concurrent use.
type Manager struct {
	sched FrameScheduler
	vp    Viewport
	theme ThemeSignal
	opts  Options

	sim  *blob.Simulation
	comp *compositor.Compositor

	state   State
	started bool
	failed  bool
	reduced bool

	surface *compositor.Surface
	blobs   *blob.State
	pal     palette.Palette
	themeID string

	gen         uint64
	cancelFrame func()
	detach      []func()

	frames    int
	observers []Observer
}

// New builds a manager. theme may be nil, in which case the default
// palette is used for the whole run.
func New(sched FrameScheduler, vp Viewport, theme ThemeSignal, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		sched:   sched,
		vp:      vp,
		theme:   theme,
		opts:    opts,
		sim:     blob.New(opts.Blobs, opts.Rand),
		comp:    compositor.New(opts.Compositor, opts.Rand),
		reduced: opts.ReducedMotion,
	}
}

func (m *Manager) AddObserver(o Observer) { m.observers = append(m.observers, o) }

func (m *Manager) State() State { return m.state }
func (m *Manager) Blobs() *blob.State { return m.blobs }
func (m *Manager) Surface() *compositor.Surface { return m.surface }
func (m *Manager) Palette() palette.Palette { return m.pal }
func (m *Manager) Frames() int { return m.frames }
func (m *Manager) ReducedMotion() bool { return m.reduced }
func (m *Manager) Compositor() *compositor.Compositor { return m.comp }

// Start subscribes to resize and theme changes, acquires the surface and
// begins rendering. With a zero viewport the manager stays Uninitialized
// until a valid resize arrives. If the surface cannot be acquired Start
// returns ErrSurfaceUnavailable and the manager stays inert for good.
func (m *Manager) Start() error {
	if m.state == TornDown {
		return ErrTornDown
	}
	if m.started {
		return ErrAlreadyStarted
	}
	if m.sched == nil || m.vp == nil {
		return ErrMissingPort
	}
	m.started = true

	m.themeID = m.currentTheme()
	m.pal = m.opts.Palettes.Resolve(m.themeID)

	m.detach = append(m.detach, m.vp.OnResize(m.handleResize))
	if m.theme != nil {
		m.detach = append(m.detach, m.theme.Subscribe(m.handleTheme))
	}

	w, h := m.vp.Size()
	if w <= 0 || h <= 0 {
		Logger().Debug("engine: waiting for a valid viewport", "width", w, "height", h)
		return nil
	}
	return m.initialize(w, h)
}

func (m *Manager) currentTheme() string {
	if m.theme == nil {
		return palette.DefaultTheme
	}
	return normalizeTheme(m.theme.Theme())
}

func normalizeTheme(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (m *Manager) initialize(w, h int) error {
	s, err := m.opts.Acquire(w, h)
	if err == nil && s == nil {
		err = errors.New("acquire returned no surface")
	}
	if err != nil {
		m.failed = true
		m.detachAll()
		Logger().Debug("engine: surface acquisition failed", "err", err)
		return fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}
	m.surface = s
	m.reseed(w, h)
	Logger().Debug("engine: initialized",
		"width", w, "height", h, "blobs", m.blobs.Len(), "theme", m.pal.Name, "reduced_motion", m.reduced)
	m.activate()
	return nil
}

// activate enters Running or Paused according to the reduced-motion flag
// and starts drawing. Under a hidden palette a running manager only keeps
// polling the theme.
func (m *Manager) activate() {
	m.cancel()
	if m.reduced {
		m.state = Paused
	} else {
		m.state = Running
	}
	if m.pal.Hidden {
		m.surface.Clear()
		if m.state == Running {
			m.schedule()
		}
		return
	}
	if m.state == Paused {
		m.renderStatic()
		return
	}
	m.schedule()
}

// reseed discards the current blobs and lays out a fresh set.
func (m *Manager) reseed(w, h int) {
	fw, fh := float64(w), float64(h)
	m.blobs = m.sim.Seed(m.sim.Count(fw), fw, fh, m.pal, m.opts.Speed)
}

func (m *Manager) schedule() {
	m.gen++
	gen := m.gen
	m.cancelFrame = m.sched.RequestFrame(func() { m.frame(gen) })
}

// cancel drops the pending frame request. Any callback already handed to
// the host is invalidated by the generation bump.
func (m *Manager) cancel() {
	m.gen++
	if m.cancelFrame != nil {
		m.cancelFrame()
		m.cancelFrame = nil
	}
}

func (m *Manager) frame(gen uint64) {
	if m.state != Running || gen != m.gen {
		return
	}
	m.cancelFrame = nil

	if id := m.currentTheme(); id != m.themeID {
		m.handleTheme(id)
		if m.state != Running || gen != m.gen {
			return
		}
	}
	if m.pal.Hidden {
		m.schedule()
		return
	}

	t0 := m.opts.Now()
	m.sim.Step(m.blobs, m.opts.Speed)
	t1 := m.opts.Now()
	m.comp.Render(m.surface, m.blobs)
	t2 := m.opts.Now()

	m.notify(t1.Sub(t0), t2.Sub(t1), false)
	m.schedule()
}

func (m *Manager) renderStatic() {
	t0 := m.opts.Now()
	m.comp.Render(m.surface, m.blobs)
	m.notify(0, m.opts.Now().Sub(t0), true)
}

func (m *Manager) notify(step, render time.Duration, static bool) {
	if !m.surface.Ready() {
		return
	}
	m.frames++
	f := Frame{
		Index:   m.frames,
		Surface: m.surface,
		Blobs:   m.blobs,
		Step:    step,
		Render:  render,
		Static:  static,
	}
	for _, o := range m.observers {
		o.OnFrame(f)
	}
}

func (m *Manager) handleResize(w, h int) {
	if m.state == TornDown || m.failed {
		return
	}
	if m.surface == nil {
		if w > 0 && h > 0 {
			if err := m.initialize(w, h); err != nil {
				Logger().Debug("engine: start on resize failed", "err", err)
			}
		}
		return
	}

	if err := m.surface.Resize(w, h); err != nil {
		Logger().Debug("engine: surface not ready", "err", err)
		m.blobs = &blob.State{}
		return
	}
	m.reseed(w, h)
	Logger().Debug("engine: reseeded", "width", w, "height", h, "blobs", m.blobs.Len())
	if m.state == Paused && !m.pal.Hidden {
		m.renderStatic()
	}
}

func (m *Manager) handleTheme(id string) {
	if m.state == TornDown || m.failed {
		return
	}
	id = normalizeTheme(id)
	next := m.opts.Palettes.Resolve(id)
	wasHidden := m.pal.Hidden
	m.themeID = id
	m.pal = next
	blob.Retint(m.blobs, next)

	if m.state == Uninitialized {
		return
	}
	Logger().Debug("engine: theme changed", "theme", next.Name, "hidden", next.Hidden)

	switch {
	case next.Hidden && !wasHidden:
		m.cancel()
		m.surface.Clear()
		if m.state == Running {
			m.schedule()
		}
	case !next.Hidden && wasHidden:
		m.activate()
	case m.state == Paused && !next.Hidden:
		m.renderStatic()
	}
}

// SetReducedMotion applies a reduced-motion preference change. Turning it
// on pauses a running effect on one static frame; turning it off resumes
// the loop.
func (m *Manager) SetReducedMotion(on bool) {
	if m.reduced == on {
		return
	}
	m.reduced = on
	if m.state != Running && m.state != Paused {
		return
	}
	Logger().Debug("engine: reduced motion changed", "on", on)
	m.activate()
}

// Teardown cancels the pending frame, detaches every subscription and
// releases the surface. It is idempotent.
func (m *Manager) Teardown() {
	if m.state == TornDown {
		return
	}
	m.cancel()
	m.detachAll()
	if m.surface != nil {
		if err := m.surface.Close(); err != nil {
			Logger().Warn("engine: closing surface", "err", err)
		}
	}
	m.state = TornDown
	Logger().Debug("engine: torn down", "frames", m.frames)
}

func (m *Manager) detachAll() {
	for _, d := range m.detach {
		if d != nil {
			d()
		}
	}
	m.detach = nil
}
