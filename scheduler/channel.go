package scheduler

// Channel identifies one governed dimension of capacity. Memory and storage
// are measured in megabytes, CPU in percent, network in kilobits per second,
// and the voice/avatar channels in concurrent operations.
type Channel int

const (
	ChannelMemory Channel = iota
	ChannelCPU
	ChannelNetwork
	ChannelStorage
	ChannelVoiceOps
	ChannelAvatarOps

	// NumChannels is the number of governed resource channels.
	NumChannels
)

func (c Channel) String() string {
	switch c {
	case ChannelMemory:
		return "memory"
	case ChannelCPU:
		return "cpu"
	case ChannelNetwork:
		return "network"
	case ChannelStorage:
		return "storage"
	case ChannelVoiceOps:
		return "voice-ops"
	case ChannelAvatarOps:
		return "avatar-ops"
	default:
		return "unknown"
	}
}

// Channels returns all governed channels in declaration order.
func Channels() []Channel {
	return []Channel{
		ChannelMemory,
		ChannelCPU,
		ChannelNetwork,
		ChannelStorage,
		ChannelVoiceOps,
		ChannelAvatarOps,
	}
}

// Vector holds one value per resource channel. It is used for request
// requirements, reservations, degradation reductions and shortfalls.
type Vector [NumChannels]float64

// Add returns the element-wise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + o[i]
	}
	return out
}

// Sub returns the element-wise difference of v and o, floored at zero.
func (v Vector) Sub(o Vector) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] - o[i]
		if out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}

// NonNegative reports whether every element of v is zero or positive.
func (v Vector) NonNegative() bool {
	for i := range v {
		if v[i] < 0 {
			return false
		}
	}
	return true
}

// Covers reports whether v is at least o on every channel where o is positive.
func (v Vector) Covers(o Vector) bool {
	for i := range o {
		if o[i] > 0 && v[i] < o[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether every element of v is zero.
func (v Vector) IsZero() bool {
	for i := range v {
		if v[i] != 0 {
			return false
		}
	}
	return true
}

// Get returns the value for a single channel.
func (v Vector) Get(c Channel) float64 {
	return v[c]
}

// With returns a copy of v with the value for channel c replaced. The
// receiver is never modified; callers must use the returned vector.
func (v Vector) With(c Channel, value float64) Vector {
	v[c] = value
	return v
}
