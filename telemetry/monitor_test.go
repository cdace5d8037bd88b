package telemetry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMonitor(t *testing.T, mutate func(*Config)) *Monitor {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewMonitor(cfg, testLogger())
	require.NoError(t, err)
	return m
}

// shedRecorder is a stub corrective target.
type shedRecorder struct {
	calls   int
	reasons []string
}

func (s *shedRecorder) ShedBackground(reason string) int {
	s.calls++
	s.reasons = append(s.reasons, reason)
	return 3
}

func TestLatencyRingBounded(t *testing.T) {
	m := newTestMonitor(t, nil)

	for i := 0; i < 1100; i++ {
		m.RecordLatency("voice-pipeline", time.Millisecond)
	}

	assert.LessOrEqual(t, m.SampleCount("voice-pipeline"), 100)
	assert.Equal(t, 100, m.SampleCount("voice-pipeline"))
	assert.Equal(t, 0, m.SampleCount("unknown-op"))
}

func TestLatencyStats(t *testing.T) {
	m := newTestMonitor(t, nil)

	for i := 1; i <= 100; i++ {
		m.RecordLatency("render", time.Duration(i)*time.Millisecond)
	}

	stats := m.LatencyStats("render")
	assert.Equal(t, 100, stats.Count)
	assert.Equal(t, time.Millisecond, stats.Min)
	assert.Equal(t, 100*time.Millisecond, stats.Max)
	assert.Equal(t, 50500*time.Microsecond, stats.Average)
	assert.Equal(t, 50*time.Millisecond, stats.Median)
	assert.Equal(t, 95*time.Millisecond, stats.P95)
	assert.Equal(t, 99*time.Millisecond, stats.P99)

	assert.Equal(t, LatencyStats{}, m.LatencyStats("unknown-op"))
}

func TestLatencySpikeAlertWithCooldown(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MaxLatency = 10 * time.Millisecond
		c.AlertCooldown = time.Hour
	})

	var alerts []Alert
	m.AddObserver(func(a Alert) { alerts = append(alerts, a) })

	m.RecordLatency("speech", 50*time.Millisecond)
	m.RecordLatency("speech", 60*time.Millisecond) // suppressed by cooldown

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLatencySpike, alerts[0].Type)
	assert.Equal(t, SeverityHigh, alerts[0].Severity)
}

func TestPerOperationLatencyThreshold(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MaxLatency = 10 * time.Millisecond
		c.LatencyThresholds = map[string]time.Duration{"slow-sync": time.Second}
	})

	var alerts []Alert
	m.AddObserver(func(a Alert) { alerts = append(alerts, a) })

	// Under its dedicated threshold, over the default one: no alert.
	m.RecordLatency("slow-sync", 500*time.Millisecond)
	assert.Empty(t, alerts)
}

func TestAlertHistoryBounded(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MaxLatency = time.Nanosecond
		c.AlertCooldown = 0
	})

	for i := 0; i < 1100; i++ {
		m.RecordLatency("op", time.Millisecond)
	}

	assert.LessOrEqual(t, len(m.AlertHistory()), 1000)
}

func TestObserverPanicIsolated(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MaxLatency = time.Millisecond
	})

	second := 0
	m.AddObserver(func(Alert) { panic("observer broke") })
	m.AddObserver(func(Alert) { second++ })

	m.RecordLatency("op", time.Second)

	assert.Equal(t, 1, second, "second observer must be invoked exactly once")
}

func TestMemoryPeakMonotonic(t *testing.T) {
	m := newTestMonitor(t, nil)

	m.RecordMemory(500)
	m.RecordMemory(900)
	m.RecordMemory(300)

	current, peak := m.MemoryUsage()
	assert.Equal(t, uint64(300), current)
	assert.Equal(t, uint64(900), peak, "peak never decreases within a session")
}

func TestMemoryThresholdTriggersCorrectiveActions(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MemoryLimit = 1000
	})

	target := &shedRecorder{}
	m.SetCorrectiveTarget(target)

	var alerts []Alert
	m.AddObserver(func(a Alert) { alerts = append(alerts, a) })

	for i := 0; i < 90; i++ {
		m.RecordLatency("op", time.Microsecond)
	}

	m.RecordMemory(2000)

	assert.Equal(t, 1, target.calls)
	assert.Equal(t, []string{"memory limit exceeded"}, target.reasons)

	// Optimize ran: rings trimmed to the configured keep count.
	assert.Equal(t, DefaultConfig().OptimizeKeep, m.SampleCount("op"))

	types := make([]AlertType, 0, len(alerts))
	for _, a := range alerts {
		types = append(types, a.Type)
	}
	assert.Contains(t, types, AlertMemoryThreshold)
	assert.Contains(t, types, AlertMemoryOptimized)

	// A second over-limit sample inside the cooldown fires nothing new.
	m.RecordMemory(2100)
	assert.Equal(t, 1, target.calls)
}

func TestIsHealthy(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MaxLatency = 10 * time.Millisecond
		c.MemoryLimit = 1000
		c.AlertCooldown = time.Hour
	})

	assert.True(t, m.IsHealthy(), "fresh monitor is healthy")

	m.RecordLatency("fast-op", time.Millisecond)
	assert.True(t, m.IsHealthy())

	m.RecordLatency("slow-op", time.Second)
	assert.False(t, m.IsHealthy(), "rolling average above threshold is unhealthy")
}

func TestIsHealthyMemoryLimit(t *testing.T) {
	m := newTestMonitor(t, func(c *Config) {
		c.MemoryLimit = 1000
		c.AlertCooldown = time.Hour
	})

	m.RecordMemory(500)
	assert.True(t, m.IsHealthy())

	m.RecordMemory(1500)
	assert.False(t, m.IsHealthy())

	m.RecordMemory(800)
	assert.True(t, m.IsHealthy(), "health recovers when usage drops")
}

func TestOptimizeTrimsAndNotifies(t *testing.T) {
	m := newTestMonitor(t, nil)

	var alerts []Alert
	m.AddObserver(func(a Alert) { alerts = append(alerts, a) })

	for i := 0; i < 100; i++ {
		m.RecordLatency("a", time.Millisecond)
		m.RecordLatency("b", time.Millisecond)
	}

	m.Optimize()

	assert.Equal(t, 50, m.SampleCount("a"))
	assert.Equal(t, 50, m.SampleCount("b"))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertMemoryOptimized, alerts[0].Type)
	assert.Equal(t, SeverityLow, alerts[0].Severity)
}

func TestPrometheusRegistryExports(t *testing.T) {
	m := newTestMonitor(t, nil)

	m.RecordLatency("op", 5*time.Millisecond)
	m.RecordMemory(12345)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["wizardai_telemetry_operation_latency_seconds"])
	assert.True(t, names["wizardai_telemetry_memory_usage_bytes"])
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max latency", func(c *Config) { c.MaxLatency = 0 }},
		{"zero memory limit", func(c *Config) { c.MemoryLimit = 0 }},
		{"zero ring size", func(c *Config) { c.RingSize = 0 }},
		{"zero alert history", func(c *Config) { c.AlertHistorySize = 0 }},
		{"negative cooldown", func(c *Config) { c.AlertCooldown = -time.Second }},
		{"optimize keep above ring size", func(c *Config) { c.OptimizeKeep = c.RingSize + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := DefaultConfig()
			tt.mutate(&bad)
			assert.Error(t, bad.Validate())
		})
	}
}
