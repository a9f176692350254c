// Package metrics aggregates per-frame measurements reported by the
// engine.
package metrics

import "github.com/san-kum/backdrop/internal/engine"

type Metric interface {
	Name() string
	Observe(f engine.Frame)
	Value() float64
	Reset()
}

// Set fans one frame out to several metrics. It implements
// engine.Observer.
type Set []Metric

func (s Set) OnFrame(f engine.Frame) {
	for _, m := range s {
		m.Observe(f)
	}
}

// Values returns each metric's current value keyed by name.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Standard returns the metrics reported by bench and record runs.
func Standard(fps int) (*FrameTime, Set) {
	ft := NewFrameTime()
	return ft, Set{ft, NewBudget(fps), NewBlobSpeed()}
}
