package telemetry

import (
	"log/slog"
	"time"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlertType identifies the condition that raised an alert.
type AlertType string

const (
	AlertLatencySpike    AlertType = "latency_spike"
	AlertMemoryThreshold AlertType = "memory_threshold"
	AlertMemoryOptimized AlertType = "memory_optimized"
)

// Alert is a telemetry notification with a metrics snapshot and suggested
// corrective actions.
type Alert struct {
	Type             AlertType      `json:"type"`
	Severity         Severity       `json:"severity"`
	Message          string         `json:"message"`
	Metrics          map[string]any `json:"metrics,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
}

// Observer receives alerts. Observers run synchronously on the raising path;
// a panicking observer is isolated and does not prevent delivery to the rest.
type Observer func(Alert)

// deliver invokes one observer with panic isolation.
func deliver(logger *slog.Logger, idx int, fn Observer, alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("alert observer panicked",
				slog.Int("observer", idx),
				slog.String("alert_type", string(alert.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	fn(alert)
}
