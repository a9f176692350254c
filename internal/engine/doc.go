// Package engine drives the background effect through its lifecycle.
//
// A [Manager] owns the simulation state and the drawing surface. It moves
// through four states:
//
//	Uninitialized -> Running | Paused -> TornDown
//
// In Running every scheduled frame steps the simulation, renders it and
// schedules the next frame. Paused (reduced motion) renders a single
// static frame and schedules nothing. TornDown is terminal.
//
// The host supplies a [FrameScheduler], a [Viewport] and a [ThemeSignal].
// All callbacks, including resize and theme notifications, must be
// delivered on one goroutine; the manager does no locking of its own.
package engine
