package metrics

import (
	"math"

	"github.com/san-kum/backdrop/internal/engine"
)

// BlobSpeed is the mean blob speed in pixels per frame over all observed
// frames.
type BlobSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewBlobSpeed() *BlobSpeed {
	return &BlobSpeed{
		name: "blob_speed",
	}
}

func (b *BlobSpeed) Name() string {
	return b.name
}

func (b *BlobSpeed) Observe(f engine.Frame) {
	if f.Blobs.Empty() {
		return
	}
	for _, bl := range f.Blobs.Blobs {
		b.sum += math.Hypot(bl.VX, bl.VY)
		b.samples++
	}
}

func (b *BlobSpeed) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.sum / float64(b.samples)
}

func (b *BlobSpeed) Reset() {
	b.sum = 0
	b.samples = 0
}
