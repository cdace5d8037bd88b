package scheduler

import (
	"time"
)

// DegradationLevel represents how aggressively a request's footprint is
// reduced in exchange for lower output quality.
type DegradationLevel int

const (
	DegradationMinimal DegradationLevel = iota
	DegradationModerate
	DegradationSevere
)

func (dl DegradationLevel) String() string {
	switch dl {
	case DegradationMinimal:
		return "minimal"
	case DegradationModerate:
		return "moderate"
	case DegradationSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// QualityImpact scores the consequences of a degradation option in [0,1].
// The scores are informational; the scheduler does not enforce them.
type QualityImpact struct {
	UserExperience float64 `json:"user_experience"`
	Functionality  float64 `json:"functionality"`
	Performance    float64 `json:"performance"`
}

// DegradationOption is one pre-declared quality reduction a request permits.
type DegradationOption struct {
	Level       DegradationLevel `json:"level"`
	Reduction   Vector           `json:"reduction"`
	Impact      QualityImpact    `json:"impact"`
	Description string           `json:"description"`
}

// AppliedDegradation records a degradation that was committed for a request.
// The entry lives until the request reaches a terminal state.
type AppliedDegradation struct {
	RequestID RequestID        `json:"request_id"`
	Level     DegradationLevel `json:"level"`
	AppliedAt time.Time        `json:"applied_at"`
	Impact    QualityImpact    `json:"impact"`
}

// degradationEngine searches a request's ordered options for one that fits
// current headroom and keeps a per-request history of applied degradations.
type degradationEngine struct {
	history map[RequestID]AppliedDegradation
}

func newDegradationEngine() *degradationEngine {
	return &degradationEngine{history: make(map[RequestID]AppliedDegradation)}
}

// selectOption scans the options in caller order and returns the first one at
// or below maxLevel whose reduction covers the shortfall on every over-budget
// channel. The second return is the reduced working requirement vector.
func (e *degradationEngine) selectOption(req *request, shortfall Vector, maxLevel DegradationLevel) (DegradationOption, Vector, bool) {
	for _, opt := range req.spec.DegradationOptions {
		if opt.Level > maxLevel {
			continue
		}
		if !opt.Reduction.Covers(shortfall) {
			continue
		}
		return opt, req.effective.Sub(opt.Reduction), true
	}
	return DegradationOption{}, Vector{}, false
}

// commit records an applied degradation for later inspection.
func (e *degradationEngine) commit(req *request, opt DegradationOption, now time.Time) AppliedDegradation {
	applied := AppliedDegradation{
		RequestID: req.id,
		Level:     opt.Level,
		AppliedAt: now,
		Impact:    opt.Impact,
	}
	e.history[req.id] = applied
	return applied
}

// forget drops the history entry once a request reaches a terminal state.
func (e *degradationEngine) forget(id RequestID) {
	delete(e.history, id)
}

// active reports whether any in-flight request is running degraded.
func (e *degradationEngine) active() bool {
	return len(e.history) > 0
}
