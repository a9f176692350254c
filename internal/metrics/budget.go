package metrics

import (
	"time"

	"github.com/san-kum/backdrop/internal/engine"
)

// Budget is the fraction of frames that finished within one frame
// interval at the target rate.
type Budget struct {
	name    string
	budget  time.Duration
	over    int
	samples int
}

func NewBudget(fps int) *Budget {
	if fps <= 0 {
		fps = 60
	}
	return &Budget{
		name:   "within_budget",
		budget: time.Second / time.Duration(fps),
	}
}

func (b *Budget) Name() string {
	return b.name
}

func (b *Budget) Observe(f engine.Frame) {
	b.samples++
	if f.Step+f.Render > b.budget {
		b.over++
	}
}

func (b *Budget) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.over)/float64(b.samples)
}

func (b *Budget) Reset() {
	b.over = 0
	b.samples = 0
}
