package scheduler

import (
	"time"
)

// RequestType categorizes the unit of work being admitted.
type RequestType string

const (
	TypeVoiceInteraction      RequestType = "voice-interaction"
	TypeAvatarRender          RequestType = "avatar-render"
	TypeCalendarOp            RequestType = "calendar-op"
	TypeReminderDelivery      RequestType = "reminder-delivery"
	TypeSync                  RequestType = "sync"
	TypeFamilyCoordination    RequestType = "family-coordination"
	TypePerformanceMonitoring RequestType = "performance-monitoring"
	TypeIndexOptimization     RequestType = "index-optimization"
)

// Priority orders pending requests. Higher values are drained first.
type Priority int

const (
	PriorityBackground Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RequestState tracks a request through its lifecycle. Dispatched work is
// not interruptible; only queued entries can be cancelled.
type RequestState int

const (
	StateSubmitted RequestState = iota
	StateQueued
	StateDispatched
	StateCompleted
	StateExpired
	StateRejected
)

func (s RequestState) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateQueued:
		return "queued"
	case StateDispatched:
		return "dispatched"
	case StateCompleted:
		return "completed"
	case StateExpired:
		return "expired"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s RequestState) terminal() bool {
	return s == StateCompleted || s == StateExpired || s == StateRejected
}

// RequestID identifies a submitted request.
type RequestID string

// RequestSpec is the caller-supplied description of a unit of work.
// DegradationOptions must be ordered from weakest savings to strongest;
// the engine picks the first option that covers the shortfall.
type RequestSpec struct {
	Type               RequestType         `json:"type"`
	Priority           Priority            `json:"priority"`
	Requirements       Vector              `json:"requirements"`
	EstimatedDuration  time.Duration       `json:"estimated_duration"`
	Deadline           *time.Time          `json:"deadline,omitempty"`
	CanDegrade         bool                `json:"can_degrade"`
	DegradationOptions []DegradationOption `json:"degradation_options,omitempty"`
}

// request is the controller-owned mutable state of a submitted request.
// The requirements as submitted are retained for audit; effective holds the
// possibly degraded vector that was (or will be) reserved.
type request struct {
	id          RequestID
	spec        RequestSpec
	effective   Vector
	state       RequestState
	seq         uint64
	submittedAt time.Time
}
