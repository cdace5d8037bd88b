package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// monitorMetrics owns the Prometheus registry and the instruments the
// monitor exports for scraping.
type monitorMetrics struct {
	registry *prometheus.Registry

	latency       *prometheus.HistogramVec
	memoryCurrent prometheus.Gauge
	memoryPeak    prometheus.Gauge
	alertsTotal   *prometheus.CounterVec
	optimizeTotal prometheus.Counter
}

func newMonitorMetrics() *monitorMetrics {
	registry := prometheus.NewRegistry()

	return &monitorMetrics{
		registry: registry,
		latency: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wizardai",
			Subsystem: "telemetry",
			Name:      "operation_latency_seconds",
			Help:      "Recorded operation latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		memoryCurrent: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Namespace: "wizardai",
			Subsystem: "telemetry",
			Name:      "memory_usage_bytes",
			Help:      "Current recorded memory usage in bytes",
		}),
		memoryPeak: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Namespace: "wizardai",
			Subsystem: "telemetry",
			Name:      "memory_peak_bytes",
			Help:      "Peak recorded memory usage in bytes",
		}),
		alertsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: "wizardai",
			Subsystem: "telemetry",
			Name:      "alerts_total",
			Help:      "Total alerts raised by type and severity",
		}, []string{"type", "severity"}),
		optimizeTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "wizardai",
			Subsystem: "telemetry",
			Name:      "optimize_runs_total",
			Help:      "Total self-triggered optimization runs",
		}),
	}
}

func (mm *monitorMetrics) observeLatency(op string, d time.Duration) {
	mm.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (mm *monitorMetrics) setMemory(current, peak uint64) {
	mm.memoryCurrent.Set(float64(current))
	mm.memoryPeak.Set(float64(peak))
}

func (mm *monitorMetrics) incAlert(alertType, severity string) {
	mm.alertsTotal.WithLabelValues(alertType, severity).Inc()
}

func (mm *monitorMetrics) incOptimize() {
	mm.optimizeTotal.Inc()
}

// Registry returns the Prometheus registry for external scraping.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.metrics.registry
}
