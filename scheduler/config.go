package scheduler

import (
	"fmt"
	"time"
)

// Config holds the admission controller settings.
type Config struct {
	// Limits configures total capacity and admission threshold per channel.
	Limits [NumChannels]ChannelLimit `json:"limits"`

	// TickInterval drives the periodic monitoring tick. Deadlines are only
	// checked during a tick, so worst-case queuing delay detection is bounded
	// by this interval.
	TickInterval time.Duration `json:"tick_interval"`

	// MaxSkipAhead bounds how many blocked queue entries a drain pass may
	// step over before stopping. Zero keeps strict head-of-line semantics:
	// a blocked high-priority request halts draining for that tick.
	MaxSkipAhead int `json:"max_skip_ahead"`
}

// DefaultConfig returns limits sized for the embedded assistant target
// (Jetson-class device: 1 GB memory budget, modest network and storage,
// two concurrent voice and three concurrent avatar operations).
func DefaultConfig() Config {
	var limits [NumChannels]ChannelLimit
	limits[ChannelMemory] = ChannelLimit{Total: 1024, ThresholdFraction: 0.80}
	limits[ChannelCPU] = ChannelLimit{Total: 100, ThresholdFraction: 0.80}
	limits[ChannelNetwork] = ChannelLimit{Total: 10000, ThresholdFraction: 0.80}
	limits[ChannelStorage] = ChannelLimit{Total: 8192, ThresholdFraction: 0.80}
	// The logical channels are hard ceilings: the threshold is the total.
	limits[ChannelVoiceOps] = ChannelLimit{Total: 2, ThresholdFraction: 1.0}
	limits[ChannelAvatarOps] = ChannelLimit{Total: 3, ThresholdFraction: 1.0}

	return Config{
		Limits:       limits,
		TickInterval: time.Second,
		MaxSkipAhead: 0,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	for _, ch := range Channels() {
		limit := c.Limits[ch]
		if limit.Total <= 0 {
			return fmt.Errorf("channel %s: total must be positive, got %f", ch, limit.Total)
		}
		if limit.ThresholdFraction <= 0 || limit.ThresholdFraction > 1 {
			return fmt.Errorf("channel %s: threshold fraction must be in (0,1], got %f", ch, limit.ThresholdFraction)
		}
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.MaxSkipAhead < 0 {
		return fmt.Errorf("max skip ahead cannot be negative, got %d", c.MaxSkipAhead)
	}
	return nil
}
