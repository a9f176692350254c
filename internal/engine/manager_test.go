package engine_test

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/backdrop/internal/blob"
	"github.com/san-kum/backdrop/internal/compositor"
	"github.com/san-kum/backdrop/internal/engine"
	"github.com/san-kum/backdrop/internal/host"
	"github.com/san-kum/backdrop/internal/palette"
)

type request struct {
	fn        func()
	cancelled bool
}

// fakeScheduler queues frame requests until the test fires them.
type fakeScheduler struct {
	queue []*request
}

func (f *fakeScheduler) RequestFrame(fn func()) func() {
	r := &request{fn: fn}
	f.queue = append(f.queue, r)
	return func() { r.cancelled = true }
}

func (f *fakeScheduler) pending() int {
	n := 0
	for _, r := range f.queue {
		if !r.cancelled {
			n++
		}
	}
	return n
}

// fire runs every live request queued so far.
func (f *fakeScheduler) fire() {
	q := f.queue
	f.queue = nil
	for _, r := range q {
		if !r.cancelled {
			r.fn()
		}
	}
}

// last returns the most recent callback regardless of cancellation.
func (f *fakeScheduler) last() func() {
	return f.queue[len(f.queue)-1].fn
}

// silentTheme reports a theme but never notifies subscribers.
type silentTheme struct {
	id string
}

func (s *silentTheme) Theme() string { return s.id }

func (s *silentTheme) Subscribe(func(string)) func() {
	return func() {}
}

type recorder struct {
	frames []engine.Frame
}

func (r *recorder) OnFrame(f engine.Frame) { r.frames = append(r.frames, f) }

func copyBlobs(st *blob.State) []blob.Blob {
	return append([]blob.Blob(nil), st.Blobs...)
}

func allZero(pix []uint8) bool {
	for _, v := range pix {
		if v != 0 {
			return false
		}
	}
	return true
}

var _ = Describe("Manager", func() {
	var (
		sched *fakeScheduler
		vp    *host.Viewport
		theme *host.ThemeSignal
		opts  engine.Options
		rec   *recorder
		m     *engine.Manager
	)

	BeforeEach(func() {
		sched = &fakeScheduler{}
		vp = host.NewViewport(800, 600)
		theme = host.NewThemeSignal("terminal")
		opts = engine.DefaultOptions()
		opts.Rand = rand.New(rand.NewSource(1))
		rec = &recorder{}
	})

	start := func() {
		m = engine.New(sched, vp, theme, opts)
		m.AddObserver(rec)
		Expect(m.Start()).To(Succeed())
	}

	AfterEach(func() {
		if m != nil {
			m.Teardown()
		}
		m = nil
	})

	Describe("Start", func() {
		It("seeds one blob per band and schedules the first frame", func() {
			start()
			Expect(m.State()).To(Equal(engine.Running))
			Expect(m.Blobs().Len()).To(Equal(2))
			Expect(m.Palette().Name).To(Equal("terminal"))
			Expect(sched.pending()).To(Equal(1))
		})

		It("steps, renders and reschedules on every frame", func() {
			start()
			before := copyBlobs(m.Blobs())
			sched.fire()

			Expect(rec.frames).To(HaveLen(1))
			Expect(rec.frames[0].Index).To(Equal(1))
			Expect(rec.frames[0].Static).To(BeFalse())
			Expect(m.Blobs().Blobs).NotTo(Equal(before))
			Expect(allZero(m.Surface().Pixels())).To(BeFalse())
			Expect(sched.pending()).To(Equal(1))

			sched.fire()
			sched.fire()
			Expect(m.Frames()).To(Equal(3))
		})

		It("rejects a second start", func() {
			start()
			Expect(m.Start()).To(MatchError(engine.ErrAlreadyStarted))
		})

		It("requires a scheduler and a viewport", func() {
			m = engine.New(nil, vp, theme, opts)
			Expect(m.Start()).To(MatchError(engine.ErrMissingPort))
		})

		It("falls back to the default palette without a theme signal", func() {
			m = engine.New(sched, vp, nil, opts)
			Expect(m.Start()).To(Succeed())
			Expect(m.Palette().Name).To(Equal(palette.DefaultTheme))
		})
	})

	Describe("zero viewport", func() {
		BeforeEach(func() {
			vp = host.NewViewport(0, 0)
		})

		It("stays uninitialized until a valid size arrives", func() {
			start()
			Expect(m.State()).To(Equal(engine.Uninitialized))
			Expect(m.Surface()).To(BeNil())
			Expect(m.Blobs().Empty()).To(BeTrue())
			Expect(sched.pending()).To(BeZero())

			vp.Resize(0, 600)
			Expect(m.State()).To(Equal(engine.Uninitialized))

			vp.Resize(1200, 600)
			Expect(m.State()).To(Equal(engine.Running))
			Expect(m.Blobs().Len()).To(Equal(3))
		})
	})

	Describe("surface acquisition failure", func() {
		BeforeEach(func() {
			opts.Acquire = func(w, h int) (*compositor.Surface, error) {
				return nil, errors.New("no 2d context")
			}
		})

		It("is permanent and silent", func() {
			m = engine.New(sched, vp, theme, opts)
			err := m.Start()
			Expect(err).To(MatchError(engine.ErrSurfaceUnavailable))
			Expect(m.State()).To(Equal(engine.Uninitialized))
			Expect(vp.Subscribers()).To(BeZero())
			Expect(theme.Subscribers()).To(BeZero())

			vp.Resize(1600, 900)
			theme.Set("amber")
			Expect(m.State()).To(Equal(engine.Uninitialized))
			Expect(sched.pending()).To(BeZero())
		})
	})

	Describe("resize", func() {
		It("reseeds with more blobs and none of the old ones", func() {
			start()
			sched.fire()
			old := copyBlobs(m.Blobs())
			Expect(old).To(HaveLen(2))

			vp.Resize(1600, 600)

			Expect(m.Blobs().Len()).To(Equal(4))
			w, h := m.Surface().Size()
			Expect(w).To(Equal(1600))
			Expect(h).To(Equal(600))
			for _, b := range m.Blobs().Blobs {
				Expect(old).NotTo(ContainElement(b))
			}
			Expect(m.State()).To(Equal(engine.Running))
		})

		It("skips frames while the size is zero", func() {
			start()
			sched.fire()
			frames := m.Frames()

			vp.Resize(0, 600)
			Expect(m.Blobs().Empty()).To(BeTrue())
			Expect(m.Surface().Ready()).To(BeFalse())
			sched.fire()
			Expect(m.Frames()).To(Equal(frames))

			vp.Resize(800, 600)
			Expect(m.Blobs().Len()).To(Equal(2))
			sched.fire()
			Expect(m.Frames()).To(Equal(frames + 1))
		})
	})

	Describe("theme change", func() {
		It("retints in place without reseeding", func() {
			start()
			sched.fire()
			before := copyBlobs(m.Blobs())

			theme.Set("amber")

			amber := palette.Resolve("amber")
			Expect(m.Palette().Name).To(Equal("amber"))
			for i, b := range m.Blobs().Blobs {
				Expect(b.X).To(Equal(before[i].X))
				Expect(b.Y).To(Equal(before[i].Y))
				Expect(b.VX).To(Equal(before[i].VX))
				Expect(b.VY).To(Equal(before[i].VY))
				Expect(b.Color).To(Equal(amber.Colors[i%len(amber.Colors)]))
			}

			sched.fire()
			last := rec.frames[len(rec.frames)-1]
			for i, b := range last.Blobs.Blobs {
				Expect(b.Color).To(Equal(amber.Colors[i%len(amber.Colors)]))
			}
			Expect(m.State()).To(Equal(engine.Running))
		})

		It("clears on a hidden palette, keeps polling and wakes on a visible one", func() {
			start()
			sched.fire()
			Expect(allZero(m.Surface().Pixels())).To(BeFalse())

			theme.Set("light")
			Expect(sched.pending()).To(Equal(1))
			Expect(allZero(m.Surface().Pixels())).To(BeTrue())

			frames := m.Frames()
			sched.fire()
			Expect(m.Frames()).To(Equal(frames))
			Expect(allZero(m.Surface().Pixels())).To(BeTrue())
			Expect(sched.pending()).To(Equal(1))

			theme.Set("carbon")
			Expect(sched.pending()).To(Equal(1))
			Expect(m.State()).To(Equal(engine.Running))
		})

		It("leaves a hidden palette through a signal that never notifies", func() {
			quiet := &silentTheme{id: "light"}
			m = engine.New(sched, vp, quiet, opts)
			m.AddObserver(rec)
			Expect(m.Start()).To(Succeed())
			Expect(m.Palette().Hidden).To(BeTrue())
			Expect(sched.pending()).To(Equal(1))

			sched.fire()
			Expect(rec.frames).To(BeEmpty())

			quiet.id = "amber"
			sched.fire()
			Expect(m.Palette().Name).To(Equal("amber"))
			Expect(sched.pending()).To(Equal(1))

			sched.fire()
			Expect(rec.frames).To(HaveLen(1))
			Expect(allZero(m.Surface().Pixels())).To(BeFalse())
			Expect(sched.pending()).To(Equal(1))
		})

		It("treats an unknown theme as the default", func() {
			start()
			theme.Set("solarized")
			Expect(m.Palette()).To(Equal(palette.Resolve(palette.DefaultTheme)))
		})
	})

	Describe("reduced motion", func() {
		BeforeEach(func() {
			opts.ReducedMotion = true
		})

		It("renders one static frame and schedules nothing", func() {
			start()
			Expect(m.State()).To(Equal(engine.Paused))
			Expect(sched.pending()).To(BeZero())
			Expect(rec.frames).To(HaveLen(1))
			Expect(rec.frames[0].Static).To(BeTrue())
			Expect(allZero(m.Surface().Pixels())).To(BeFalse())
		})

		It("repaints the static frame on resize and theme change", func() {
			start()
			vp.Resize(1200, 700)
			theme.Set("amber")
			Expect(rec.frames).To(HaveLen(3))
			Expect(sched.pending()).To(BeZero())
		})

		It("follows a mid-session preference change", func() {
			start()
			m.SetReducedMotion(false)
			Expect(m.State()).To(Equal(engine.Running))
			Expect(sched.pending()).To(Equal(1))

			sched.fire()
			m.SetReducedMotion(true)
			Expect(m.State()).To(Equal(engine.Paused))
			Expect(sched.pending()).To(BeZero())
			Expect(rec.frames[len(rec.frames)-1].Static).To(BeTrue())
		})
	})

	Describe("Teardown", func() {
		It("turns an already queued callback into a no-op", func() {
			start()
			sched.fire()
			stale := sched.last()
			blobs := m.Blobs()
			before := copyBlobs(blobs)
			frames := m.Frames()

			m.Teardown()
			stale()

			Expect(m.State()).To(Equal(engine.TornDown))
			Expect(blobs.Blobs).To(Equal(before))
			Expect(m.Frames()).To(Equal(frames))
			Expect(rec.frames).To(HaveLen(frames))
		})

		It("detaches subscriptions and is idempotent", func() {
			start()
			m.Teardown()
			m.Teardown()

			Expect(vp.Subscribers()).To(BeZero())
			Expect(theme.Subscribers()).To(BeZero())
			Expect(sched.pending()).To(BeZero())
			Expect(m.Surface().Ready()).To(BeFalse())
			Expect(m.Start()).To(MatchError(engine.ErrTornDown))

			m.SetReducedMotion(true)
			Expect(m.State()).To(Equal(engine.TornDown))
		})
	})
})
