package scheduler

// PressureLevel is the qualitative bucket derived from a channel's
// utilization ratio against its admission threshold.
type PressureLevel int

const (
	PressureNone PressureLevel = iota
	PressureLow
	PressureMedium
	PressureHigh
	PressureCritical
)

func (p PressureLevel) String() string {
	switch p {
	case PressureNone:
		return "none"
	case PressureLow:
		return "low"
	case PressureMedium:
		return "medium"
	case PressureHigh:
		return "high"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// classifyRatio maps a used/threshold ratio to a pressure level.
// Band edges: exactly 60% is medium, exactly 80% is high, exactly 95% is
// still high; only above 95% is critical.
func classifyRatio(ratio float64) PressureLevel {
	switch {
	case ratio > 0.95:
		return PressureCritical
	case ratio >= 0.80:
		return PressureHigh
	case ratio >= 0.60:
		return PressureMedium
	case ratio >= 0.30:
		return PressureLow
	default:
		return PressureNone
	}
}

// classifyOverall reduces per-channel pressure to one system level using a
// worst-of rule: a single saturated channel drives the whole system into
// critical even if every other channel is idle.
func classifyOverall(states []ChannelState) PressureLevel {
	overall := PressureNone
	for _, s := range states {
		if s.Pressure > overall {
			overall = s.Pressure
		}
	}
	return overall
}
