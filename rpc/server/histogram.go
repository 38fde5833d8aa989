package server

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// sizeBoundaries are the inclusive upper bounds of the histogram buckets.
// Exponential steps cover everything from a NIL reply to the largest
// message size anyone would configure.
var sizeBoundaries = []int{
	8, 16, 32, 64, 128, 256, 512, // small replies: nil, int, short strings
	1024, 4096, 16384, 65536, // KEYS and ZQUERY pages
	262144, 1048576, // raised message size limits
}

// SizeHistogram tracks the distribution of encoded reply sizes. Samples are
// added on the event loop goroutine while the stats reporter and the
// metrics endpoint read it concurrently, so every field is atomic.
type SizeHistogram struct {
	buckets []atomic.Int64 // len(sizeBoundaries)+1, the last one counts larger values
	count   atomic.Int64
	sum     atomic.Int64
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{
		buckets: make([]atomic.Int64, len(sizeBoundaries)+1),
	}
}

// AddSample records one size
func (h *SizeHistogram) AddSample(size int) {
	h.buckets[bucketFor(size)].Add(1)
	h.count.Add(1)
	h.sum.Add(int64(size))
}

// Count returns the total number of samples
func (h *SizeHistogram) Count() int64 {
	return h.count.Load()
}

// Mean returns the average size across all samples
func (h *SizeHistogram) Mean() int {
	count := h.count.Load()
	if count == 0 {
		return 0
	}
	return int(h.sum.Load() / count)
}

// Percentile returns an estimate for the given percentile (0-100). The
// estimate is the upper bound of the bucket the percentile falls into.
func (h *SizeHistogram) Percentile(percentile int) int {
	count := h.count.Load()
	if count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := max(1, int64(math.Ceil(float64(count)*float64(percentile)/100.0)))
	var cumulative int64
	for i := range h.buckets {
		cumulative += h.buckets[i].Load()
		if cumulative >= target {
			return upperBound(i)
		}
	}

	// samples added while iterating
	return upperBound(len(h.buckets) - 1)
}

// Distribution returns the bucket upper bounds and the share of samples in
// each bucket in percent
func (h *SizeHistogram) Distribution() ([]int, []float64) {
	bounds := make([]int, len(h.buckets))
	shares := make([]float64, len(h.buckets))
	count := h.count.Load()
	for i := range h.buckets {
		bounds[i] = upperBound(i)
		if count > 0 {
			shares[i] = float64(h.buckets[i].Load()) * 100.0 / float64(count)
		}
	}
	return bounds, shares
}

// String lists the non-empty buckets as "<=bound:share%"
func (h *SizeHistogram) String() string {
	bounds, shares := h.Distribution()
	var sb strings.Builder
	for i, share := range shares {
		if share == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "<=%dB:%.1f%%", bounds[i], share)
	}
	if sb.Len() == 0 {
		return "empty"
	}
	return sb.String()
}

// Reset clears all samples
func (h *SizeHistogram) Reset() {
	for i := range h.buckets {
		h.buckets[i].Store(0)
	}
	h.count.Store(0)
	h.sum.Store(0)
}

func bucketFor(size int) int {
	for i, boundary := range sizeBoundaries {
		if size <= boundary {
			return i
		}
	}
	return len(sizeBoundaries)
}

// upperBound of the overflow bucket is reported as twice the last boundary
func upperBound(bucket int) int {
	if bucket < len(sizeBoundaries) {
		return sizeBoundaries[bucket]
	}
	return 2 * sizeBoundaries[len(sizeBoundaries)-1]
}
