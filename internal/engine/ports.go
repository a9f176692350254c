package engine

import "github.com/san-kum/backdrop/internal/compositor"

// FrameScheduler runs fn once before the next repaint. The returned
// function cancels the request if it has not run yet.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// FrameSchedulerFunc adapts a function to FrameScheduler.
type FrameSchedulerFunc func(fn func()) func()

func (f FrameSchedulerFunc) RequestFrame(fn func()) func() { return f(fn) }

// ThemeSignal exposes the host's current theme identifier and notifies
// subscribers when it changes. The engine never writes it.
type ThemeSignal interface {
	Theme() string
	Subscribe(fn func(themeID string)) (unsubscribe func())
}

// Viewport reports the size the surface should fill and notifies
// subscribers when it changes.
type Viewport interface {
	Size() (width, height int)
	OnResize(fn func(width, height int)) (detach func())
}

// AcquireFunc obtains a drawing surface of the given size.
type AcquireFunc func(width, height int) (*compositor.Surface, error)
