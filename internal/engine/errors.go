package engine

import "errors"

var (
	// ErrSurfaceUnavailable means no drawing surface could be acquired. It
	// is permanent for the manager that returned it.
	ErrSurfaceUnavailable = errors.New("engine: drawing surface unavailable")

	// ErrTornDown is returned by operations on a manager after Teardown.
	ErrTornDown = errors.New("engine: manager torn down")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("engine: manager already started")

	// ErrMissingPort means the manager was built without a scheduler or
	// viewport.
	ErrMissingPort = errors.New("engine: frame scheduler and viewport are required")
)
