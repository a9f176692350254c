package viz

import (
	"github.com/guptarohit/asciigraph"
)

// FramePlot draws frame times in milliseconds. Series longer than width
// are averaged into width buckets.
func FramePlot(totals []float64, width, height int, caption string) string {
	if len(totals) < 2 {
		return ""
	}
	return asciigraph.Plot(Downsample(totals, width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

// Downsample averages values into at most n buckets.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
