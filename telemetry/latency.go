package telemetry

import (
	"sort"
	"time"
)

// LatencyStats are rolling statistics over the retained samples for one
// operation key. They are computed on demand from a sorted copy rather than
// incrementally.
type LatencyStats struct {
	Count   int           `json:"count"`
	Average time.Duration `json:"average"`
	Median  time.Duration `json:"median"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
}

// latencyRing is a bounded per-key sample buffer. Appending beyond capacity
// drops the oldest sample.
type latencyRing struct {
	samples []time.Duration
	cap     int
}

func newLatencyRing(cap int) *latencyRing {
	return &latencyRing{samples: make([]time.Duration, 0, cap), cap: cap}
}

func (r *latencyRing) add(d time.Duration) {
	r.samples = append(r.samples, d)
	if len(r.samples) > r.cap {
		r.samples = r.samples[len(r.samples)-r.cap:]
	}
}

// trim keeps only the most recent n samples.
func (r *latencyRing) trim(n int) {
	if len(r.samples) > n {
		r.samples = append(r.samples[:0], r.samples[len(r.samples)-n:]...)
	}
}

func (r *latencyRing) len() int {
	return len(r.samples)
}

func (r *latencyRing) average() time.Duration {
	if len(r.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range r.samples {
		sum += d
	}
	return sum / time.Duration(len(r.samples))
}

func (r *latencyRing) stats() LatencyStats {
	n := len(r.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, n)
	copy(sorted, r.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyStats{
		Count:   n,
		Average: r.average(),
		Median:  percentile(sorted, 0.50),
		P95:     percentile(sorted, 0.95),
		P99:     percentile(sorted, 0.99),
		Min:     sorted[0],
		Max:     sorted[n-1],
	}
}

// percentile picks the nearest-rank value from an ascending-sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
