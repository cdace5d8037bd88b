package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a scheduler notification.
type EventType string

const (
	EventQueued             EventType = "queued"
	EventDispatched         EventType = "dispatched"
	EventCompleted          EventType = "completed"
	EventExpired            EventType = "expired"
	EventRejected           EventType = "rejected"
	EventDegradationApplied EventType = "degradation-applied"
	EventPressureChanged    EventType = "pressure-changed"
)

// Event is a scheduler notification delivered to subscribers. Priority and
// Pressure are always serialized: their zero values (background priority,
// no pressure) are meaningful.
type Event struct {
	Type        EventType           `json:"type"`
	RequestID   RequestID           `json:"request_id,omitempty"`
	RequestType RequestType         `json:"request_type,omitempty"`
	Priority    Priority            `json:"priority"`
	Pressure    PressureLevel       `json:"pressure"`
	Reason      string              `json:"reason,omitempty"`
	Degradation *AppliedDegradation `json:"degradation,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Subscriber receives scheduler events. Subscribers run synchronously on the
// publishing path and must be fast; a panicking subscriber is isolated and
// does not prevent delivery to the rest.
type Subscriber func(Event)

// eventBus fans events out to registered subscribers with per-call isolation.
type eventBus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger *slog.Logger
}

func newEventBus(logger *slog.Logger) *eventBus {
	return &eventBus{logger: logger}
}

func (b *eventBus) subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *eventBus) publish(events []Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, ev := range events {
		for i, fn := range subs {
			b.deliver(i, fn, ev)
		}
	}
}

// deliver invokes one subscriber, capturing a panic so the remaining
// subscribers still see the event.
func (b *eventBus) deliver(idx int, fn Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				slog.Int("subscriber", idx),
				slog.String("event", string(ev.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
