package scheduler

import (
	"runtime"
	"sync"
)

// ChannelState is a point-in-time snapshot of one resource channel.
type ChannelState struct {
	Channel   Channel       `json:"channel"`
	Name      string        `json:"name"`
	Total     float64       `json:"total"`
	Used      float64       `json:"used"`
	Available float64       `json:"available"`
	Threshold float64       `json:"threshold"`
	Pressure  PressureLevel `json:"pressure"`
}

// ChannelLimit configures the capacity of one channel. ThresholdFraction is
// the fraction of Total above which admission is refused.
type ChannelLimit struct {
	Total             float64 `json:"total"`
	ThresholdFraction float64 `json:"threshold_fraction"`
}

// ChannelMask marks which channels a sampler actually observed. A channel
// that is not marked keeps its previous baseline, so an observed value of
// zero genuinely means zero usage.
type ChannelMask [NumChannels]bool

// UsageSampler reports externally measured baseline usage. The default
// implementation reads Go runtime counters; tests substitute a stub.
type UsageSampler interface {
	// SampleUsage returns baseline usage together with the mask of channels
	// the sampler observed. Unobserved channels remain reservation-driven.
	SampleUsage() (Vector, ChannelMask)
}

// RuntimeSampler measures process memory via runtime.ReadMemStats. CPU usage
// has no cheap in-process counter, so the host feeds it through
// SetCPUPercent; the CPU channel stays unobserved until the first feed.
type RuntimeSampler struct {
	mu          sync.Mutex
	cpuPercent  float64
	cpuObserved bool
}

// NewRuntimeSampler returns the default process-level usage sampler.
func NewRuntimeSampler() *RuntimeSampler {
	return &RuntimeSampler{}
}

// SetCPUPercent records the externally measured CPU usage. Safe to call from
// a goroutine other than the sampling one.
func (s *RuntimeSampler) SetCPUPercent(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpuPercent = p
	s.cpuObserved = true
}

func (s *RuntimeSampler) SampleUsage() (Vector, ChannelMask) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.mu.Lock()
	cpu, cpuOK := s.cpuPercent, s.cpuObserved
	s.mu.Unlock()

	var v Vector
	var observed ChannelMask
	v[ChannelMemory] = float64(mem.Alloc) / (1024 * 1024)
	observed[ChannelMemory] = true
	if cpuOK {
		v[ChannelCPU] = cpu
		observed[ChannelCPU] = true
	}
	return v, observed
}

// ResourceTracker owns the per-channel totals, thresholds, sampled baseline
// and outstanding reservations. It carries no lock of its own: every access
// goes through the admission controller's mutex, which is the single
// mutual-exclusion domain for the scheduler core.
type ResourceTracker struct {
	totals     Vector
	thresholds Vector // absolute ceilings, totals * threshold fraction
	baseline   Vector // externally measured usage
	reserved   Vector // sum of outstanding reservations
	sampler    UsageSampler
}

// NewResourceTracker creates a tracker from per-channel limits.
func NewResourceTracker(limits [NumChannels]ChannelLimit, sampler UsageSampler) *ResourceTracker {
	if sampler == nil {
		sampler = NewRuntimeSampler()
	}

	t := &ResourceTracker{sampler: sampler}
	for c := range limits {
		t.totals[c] = limits[c].Total
		t.thresholds[c] = limits[c].Total * limits[c].ThresholdFraction
	}
	return t
}

// Sample refreshes the externally measured baseline for every observed
// channel, including back down to zero when load subsides. The baseline is
// clamped so that baseline+reserved never exceeds total, preserving the
// used <= total invariant even if the sampler reports a spike.
func (t *ResourceTracker) Sample() {
	sampled, observed := t.sampler.SampleUsage()
	for c := range sampled {
		if !observed[c] {
			continue
		}
		ceiling := t.totals[c] - t.reserved[c]
		if sampled[c] > ceiling {
			sampled[c] = ceiling
		}
		t.baseline[c] = sampled[c]
	}
}

// Used returns baseline plus outstanding reservations per channel.
func (t *ResourceTracker) Used() Vector {
	return t.baseline.Add(t.reserved)
}

// Reserve atomically checks that used+req stays at or below the threshold on
// every channel and commits the reservation. On any failing channel no change
// is made.
func (t *ResourceTracker) Reserve(req Vector) bool {
	used := t.Used()
	for c := range req {
		if used[c]+req[c] > t.thresholds[c] {
			return false
		}
	}
	t.reserved = t.reserved.Add(req)
	return true
}

// Release returns a reservation. The reserved vector is floored at zero so a
// stray release can never push usage accounting negative; call-once is
// enforced by the controller's terminal-state transition.
func (t *ResourceTracker) Release(req Vector) {
	t.reserved = t.reserved.Sub(req)
}

// Shortfall returns, per channel, how far used+req overshoots the threshold.
// Channels with headroom report zero.
func (t *ResourceTracker) Shortfall(req Vector) Vector {
	used := t.Used()
	var short Vector
	for c := range req {
		over := used[c] + req[c] - t.thresholds[c]
		if over > 0 {
			short[c] = over
		}
	}
	return short
}

// State returns a snapshot of every channel with its derived pressure level.
func (t *ResourceTracker) State() []ChannelState {
	used := t.Used()
	states := make([]ChannelState, 0, NumChannels)
	for _, c := range Channels() {
		ratio := 0.0
		if t.thresholds[c] > 0 {
			ratio = used[c] / t.thresholds[c]
		}
		states = append(states, ChannelState{
			Channel:   c,
			Name:      c.String(),
			Total:     t.totals[c],
			Used:      used[c],
			Available: t.totals[c] - used[c],
			Threshold: t.thresholds[c],
			Pressure:  classifyRatio(ratio),
		})
	}
	return states
}

// OverallPressure returns the worst pressure level across all channels.
func (t *ResourceTracker) OverallPressure() PressureLevel {
	return classifyOverall(t.State())
}
