package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/san-kum/backdrop/internal/engine"
)

// Sample is the timing of one rendered frame.
type Sample struct {
	Index    int     `json:"frame"`
	StepMs   float64 `json:"step_ms"`
	RenderMs float64 `json:"render_ms"`
	Blobs    int     `json:"blobs"`
}

func (s Sample) TotalMs() float64 { return s.StepMs + s.RenderMs }

// FrameTime keeps every frame's timing. Value is the mean total time in
// milliseconds.
type FrameTime struct {
	name    string
	limit   int
	samples []Sample
	total   float64
}

func NewFrameTime() *FrameTime {
	return &FrameTime{name: "frame_ms"}
}

// NewRecentFrameTime keeps only the last n frames.
func NewRecentFrameTime(n int) *FrameTime {
	return &FrameTime{name: "frame_ms", limit: n}
}

func (ft *FrameTime) Name() string { return ft.name }

func (ft *FrameTime) Observe(f engine.Frame) {
	s := Sample{
		Index:    f.Index,
		StepMs:   ms(f.Step),
		RenderMs: ms(f.Render),
		Blobs:    f.Blobs.Len(),
	}
	if ft.limit > 0 && len(ft.samples) >= ft.limit {
		ft.total -= ft.samples[0].TotalMs()
		ft.samples = append(ft.samples[:0], ft.samples[1:]...)
	}
	ft.samples = append(ft.samples, s)
	ft.total += s.TotalMs()
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func (ft *FrameTime) Value() float64 {
	if len(ft.samples) == 0 {
		return 0
	}
	return ft.total / float64(len(ft.samples))
}

func (ft *FrameTime) Reset() {
	ft.samples = nil
	ft.total = 0
}

func (ft *FrameTime) Samples() []Sample { return ft.samples }

// Totals returns the total time of every frame in order.
func (ft *FrameTime) Totals() []float64 {
	out := make([]float64, len(ft.samples))
	for i, s := range ft.samples {
		out[i] = s.TotalMs()
	}
	return out
}

// Percentile returns the p-th percentile (0..100) of total frame time
// using nearest rank.
func (ft *FrameTime) Percentile(p float64) float64 {
	if len(ft.samples) == 0 {
		return 0
	}
	totals := ft.Totals()
	sort.Float64s(totals)
	rank := int(math.Ceil(p/100*float64(len(totals)))) - 1
	rank = max(0, min(rank, len(totals)-1))
	return totals[rank]
}

func (ft *FrameTime) Max() float64 {
	m := 0.0
	for _, s := range ft.samples {
		m = math.Max(m, s.TotalMs())
	}
	return m
}
