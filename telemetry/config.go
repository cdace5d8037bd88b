package telemetry

import (
	"fmt"
	"time"
)

// Config holds the performance telemetry settings.
type Config struct {
	// MaxLatency is the default per-operation latency threshold. A single
	// sample above it raises a latency spike alert; a rolling average above
	// it marks the monitor unhealthy.
	MaxLatency time.Duration `json:"max_latency"`

	// LatencyThresholds overrides MaxLatency for specific operation keys.
	LatencyThresholds map[string]time.Duration `json:"latency_thresholds,omitempty"`

	// MemoryLimit is the memory ceiling in bytes. Samples above it raise a
	// memory threshold alert and trigger corrective actions.
	MemoryLimit uint64 `json:"memory_limit"`

	// RingSize caps the retained latency samples per operation key.
	RingSize int `json:"ring_size"`

	// AlertHistorySize caps the retained alert history.
	AlertHistorySize int `json:"alert_history_size"`

	// AlertCooldown suppresses repeated alerts of the same type.
	AlertCooldown time.Duration `json:"alert_cooldown"`

	// OptimizeKeep is how many recent samples each ring keeps after Optimize.
	OptimizeKeep int `json:"optimize_keep"`
}

// DefaultConfig returns telemetry settings sized for the embedded target.
func DefaultConfig() Config {
	return Config{
		MaxLatency:       500 * time.Millisecond,
		MemoryLimit:      1024 * 1024 * 1024, // 1 GB
		RingSize:         100,
		AlertHistorySize: 1000,
		AlertCooldown:    60 * time.Second,
		OptimizeKeep:     50,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MaxLatency <= 0 {
		return fmt.Errorf("max latency must be positive, got %s", c.MaxLatency)
	}
	if c.MemoryLimit == 0 {
		return fmt.Errorf("memory limit must be positive")
	}
	if c.RingSize <= 0 {
		return fmt.Errorf("ring size must be positive, got %d", c.RingSize)
	}
	if c.AlertHistorySize <= 0 {
		return fmt.Errorf("alert history size must be positive, got %d", c.AlertHistorySize)
	}
	if c.AlertCooldown < 0 {
		return fmt.Errorf("alert cooldown cannot be negative, got %s", c.AlertCooldown)
	}
	if c.OptimizeKeep < 0 || c.OptimizeKeep > c.RingSize {
		return fmt.Errorf("optimize keep must be in [0,%d], got %d", c.RingSize, c.OptimizeKeep)
	}
	return nil
}

// latencyThreshold returns the threshold for one operation key.
func (c *Config) latencyThreshold(op string) time.Duration {
	if t, ok := c.LatencyThresholds[op]; ok {
		return t
	}
	return c.MaxLatency
}
