package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func degradable(opts ...DegradationOption) *request {
	return &request{
		id:        "req-degrade",
		effective: Vector{100, 50, 0, 0, 0, 0},
		spec: RequestSpec{
			CanDegrade:         true,
			Requirements:       Vector{100, 50, 0, 0, 0, 0},
			DegradationOptions: opts,
		},
	}
}

func reduction(mem, cpu float64) Vector {
	var v Vector
	v[ChannelMemory] = mem
	v[ChannelCPU] = cpu
	return v
}

func TestSelectOptionPicksFirstCoveringShortfall(t *testing.T) {
	// MINIMAL saves (2,5), SEVERE saves (15,30). A shortfall of (10,20) can
	// only be covered by SEVERE: minimal alone is insufficient on both
	// channels.
	minimal := DegradationOption{Level: DegradationMinimal, Reduction: reduction(2, 5)}
	severe := DegradationOption{Level: DegradationSevere, Reduction: reduction(15, 30)}

	e := newDegradationEngine()
	opt, reduced, ok := e.selectOption(degradable(minimal, severe), reduction(10, 20), DegradationSevere)

	require.True(t, ok)
	assert.Equal(t, DegradationSevere, opt.Level)
	assert.Equal(t, 85.0, reduced[ChannelMemory])
	assert.Equal(t, 20.0, reduced[ChannelCPU])
}

func TestSelectOptionRespectsLevelCap(t *testing.T) {
	severe := DegradationOption{Level: DegradationSevere, Reduction: reduction(50, 50)}

	e := newDegradationEngine()
	_, _, ok := e.selectOption(degradable(severe), reduction(10, 20), DegradationModerate)
	assert.False(t, ok, "severe option must not be considered under a moderate cap")
}

func TestSelectOptionNoneCovers(t *testing.T) {
	minimal := DegradationOption{Level: DegradationMinimal, Reduction: reduction(2, 5)}

	e := newDegradationEngine()
	_, _, ok := e.selectOption(degradable(minimal), reduction(10, 20), DegradationSevere)
	assert.False(t, ok)
}

func TestSelectOptionCallerOrderWins(t *testing.T) {
	// Both options cover; the first in caller order is selected even though
	// the second saves more.
	moderate := DegradationOption{Level: DegradationModerate, Reduction: reduction(20, 25)}
	severe := DegradationOption{Level: DegradationSevere, Reduction: reduction(60, 40)}

	e := newDegradationEngine()
	opt, _, ok := e.selectOption(degradable(moderate, severe), reduction(10, 20), DegradationSevere)

	require.True(t, ok)
	assert.Equal(t, DegradationModerate, opt.Level)
}

func TestEngineHistoryLifecycle(t *testing.T) {
	e := newDegradationEngine()
	r := degradable(DegradationOption{Level: DegradationMinimal, Reduction: reduction(2, 5)})

	assert.False(t, e.active())

	applied := e.commit(r, r.spec.DegradationOptions[0], time.Now())
	assert.Equal(t, r.id, applied.RequestID)
	assert.True(t, e.active())

	e.forget(r.id)
	assert.False(t, e.active())
}
