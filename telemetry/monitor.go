package telemetry

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// CorrectiveTarget is the hook through which telemetry requests corrective
// action from the scheduler, such as shedding background work when the
// memory limit is breached.
type CorrectiveTarget interface {
	ShedBackground(reason string) int
}

// Monitor records operation latencies and memory samples, computes rolling
// statistics, raises alerts through registered observers and performs
// self-triggered memory optimization.
type Monitor struct {
	mu     sync.RWMutex
	cfg    Config
	logger *slog.Logger

	rings         map[string]*latencyRing
	currentMemory uint64
	peakMemory    uint64

	alerts    []Alert
	lastAlert map[AlertType]time.Time
	observers []Observer
	target    CorrectiveTarget

	metrics *monitorMetrics
	now     func() time.Time
}

// NewMonitor creates a telemetry monitor. A nil logger falls back to
// slog.Default().
func NewMonitor(cfg Config, logger *slog.Logger) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		cfg:       cfg,
		logger:    logger,
		rings:     make(map[string]*latencyRing),
		alerts:    make([]Alert, 0),
		lastAlert: make(map[AlertType]time.Time),
		metrics:   newMonitorMetrics(),
		now:       time.Now,
	}, nil
}

// AddObserver registers an alert observer.
func (m *Monitor) AddObserver(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// SetCorrectiveTarget registers the scheduler hook for corrective actions.
func (m *Monitor) SetCorrectiveTarget(target CorrectiveTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = target
}

// RecordLatency appends a sample to the bounded ring for the operation key
// and raises a latency spike alert when the sample exceeds the threshold.
func (m *Monitor) RecordLatency(op string, d time.Duration) {
	m.mu.Lock()
	ring, ok := m.rings[op]
	if !ok {
		ring = newLatencyRing(m.cfg.RingSize)
		m.rings[op] = ring
	}
	ring.add(d)
	threshold := m.cfg.latencyThreshold(op)
	m.mu.Unlock()

	m.metrics.observeLatency(op, d)

	if d > threshold {
		m.raise(Alert{
			Type:     AlertLatencySpike,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("operation %s took %s, threshold %s", op, d, threshold),
			Metrics: map[string]any{
				"operation":    op,
				"duration_ms":  d.Milliseconds(),
				"threshold_ms": threshold.Milliseconds(),
			},
			SuggestedActions: []string{
				"reduce concurrent load",
				"enable degradation for this operation type",
			},
		})
	}
}

// LatencyStats returns rolling statistics for one operation key.
func (m *Monitor) LatencyStats(op string) LatencyStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ring, ok := m.rings[op]
	if !ok {
		return LatencyStats{}
	}
	return ring.stats()
}

// SampleCount returns the number of retained samples for one operation key.
func (m *Monitor) SampleCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ring, ok := m.rings[op]
	if !ok {
		return 0
	}
	return ring.len()
}

// RecordMemory updates current and peak usage. Peak never decreases within a
// monitoring session. Crossing the memory limit raises an alert and, when
// the alert actually fires (cooldown permitting), triggers corrective
// actions: ring trimming plus background shedding via the registered target.
func (m *Monitor) RecordMemory(bytes uint64) {
	m.mu.Lock()
	m.currentMemory = bytes
	if bytes > m.peakMemory {
		m.peakMemory = bytes
	}
	limit := m.cfg.MemoryLimit
	target := m.target
	m.mu.Unlock()

	m.metrics.setMemory(bytes, m.peak())

	if bytes <= limit {
		return
	}

	fired := m.raise(Alert{
		Type:     AlertMemoryThreshold,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("memory usage %d bytes exceeds limit %d bytes", bytes, limit),
		Metrics: map[string]any{
			"current_bytes": bytes,
			"limit_bytes":   limit,
			"peak_bytes":    m.peak(),
		},
		SuggestedActions: []string{
			"trim telemetry history",
			"shed background work",
		},
	})
	if !fired {
		return
	}

	m.Optimize()
	if target != nil {
		shed := target.ShedBackground("memory limit exceeded")
		m.logger.Warn("corrective shedding requested",
			slog.Int("shed_count", shed),
			slog.Uint64("memory_bytes", bytes),
		)
	}
}

// MemoryUsage returns current and peak memory in bytes.
func (m *Monitor) MemoryUsage() (current, peak uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentMemory, m.peakMemory
}

func (m *Monitor) peak() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peakMemory
}

// IsHealthy reports whether every tracked operation's rolling average is at
// or below its latency threshold and memory is within the limit.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.currentMemory > m.cfg.MemoryLimit {
		return false
	}
	for op, ring := range m.rings {
		if ring.average() > m.cfg.latencyThreshold(op) {
			return false
		}
	}
	return true
}

// Optimize trims every latency ring to the most recent OptimizeKeep samples
// and hints the runtime to return freed memory to the OS. The hint is best
// effort; the call never fails.
func (m *Monitor) Optimize() {
	m.mu.Lock()
	trimmed := 0
	for _, ring := range m.rings {
		before := ring.len()
		ring.trim(m.cfg.OptimizeKeep)
		trimmed += before - ring.len()
	}
	m.mu.Unlock()

	debug.FreeOSMemory()
	m.metrics.incOptimize()

	m.logger.Info("telemetry optimized", slog.Int("samples_trimmed", trimmed))
	m.raise(Alert{
		Type:     AlertMemoryOptimized,
		Severity: SeverityLow,
		Message:  "telemetry history trimmed and memory reclamation requested",
		Metrics:  map[string]any{"samples_trimmed": trimmed},
	})
}

// AlertHistory returns a copy of the retained alerts.
func (m *Monitor) AlertHistory() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// raise records an alert subject to the per-type cooldown and fans it out to
// observers. Returns whether the alert actually fired.
func (m *Monitor) raise(alert Alert) bool {
	m.mu.Lock()
	now := m.now()
	if last, ok := m.lastAlert[alert.Type]; ok && now.Sub(last) < m.cfg.AlertCooldown {
		m.mu.Unlock()
		return false
	}
	alert.Timestamp = now
	m.lastAlert[alert.Type] = now

	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > m.cfg.AlertHistorySize {
		m.alerts = m.alerts[len(m.alerts)-m.cfg.AlertHistorySize:]
	}

	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	m.metrics.incAlert(string(alert.Type), string(alert.Severity))
	m.logger.Warn("telemetry alert",
		slog.String("type", string(alert.Type)),
		slog.String("severity", string(alert.Severity)),
		slog.String("message", alert.Message),
	)

	for i, fn := range observers {
		deliver(m.logger, i, fn, alert)
	}
	return true
}
