package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerStats is a point-in-time summary of the controller.
type SchedulerStats struct {
	QueueLength       int           `json:"queue_length"`
	ActiveCount       int           `json:"active_count"`
	OverallPressure   PressureLevel `json:"overall_pressure"`
	DegradationActive bool          `json:"degradation_active"`
}

// AdmissionController owns the pending-request queue, performs admission
// checks against the resource tracker, dispatches work, releases
// reservations on completion and expires deadlines. All mutation of the
// resource state and the queue is serialized behind one mutex; the periodic
// tick, Submit, Cancel and Complete share that single mutual-exclusion
// domain, so a re-entrant tick can never interleave with a reservation.
type AdmissionController struct {
	mu      sync.Mutex
	cfg     Config
	logger  *slog.Logger
	tracker *ResourceTracker
	engine  *degradationEngine
	queue   pendingQueue

	requests map[RequestID]*request // submitted, queued and dispatched
	active   map[RequestID]*request // dispatched only
	idSeq    uint64
	overall  PressureLevel

	bus *eventBus
	now func() time.Time

	isRunning bool
	stopChan  chan struct{}
}

// NewAdmissionController creates a controller. A nil sampler selects the
// runtime-backed default; a nil logger falls back to slog.Default().
func NewAdmissionController(cfg Config, sampler UsageSampler, logger *slog.Logger) (*AdmissionController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AdmissionController{
		cfg:      cfg,
		logger:   logger,
		tracker:  NewResourceTracker(cfg.Limits, sampler),
		engine:   newDegradationEngine(),
		requests: make(map[RequestID]*request),
		active:   make(map[RequestID]*request),
		overall:  PressureNone,
		bus:      newEventBus(logger),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}, nil
}

// Subscribe registers a notification subscriber.
func (c *AdmissionController) Subscribe(fn Subscriber) {
	c.bus.subscribe(fn)
}

// Start begins the periodic monitoring tick.
func (c *AdmissionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("admission controller is already running")
	}
	c.isRunning = true
	stop := c.stopChan
	c.mu.Unlock()

	go c.tickLoop(ctx, stop)

	c.logger.Info("admission controller started",
		slog.Duration("tick_interval", c.cfg.TickInterval),
		slog.Int("max_skip_ahead", c.cfg.MaxSkipAhead),
	)
	return nil
}

// Stop halts the periodic tick. Queued and dispatched requests are left in
// place; callers decide whether to drain or abandon them.
func (c *AdmissionController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		close(c.stopChan)
		c.stopChan = make(chan struct{})
		c.isRunning = false
	}
}

func (c *AdmissionController) tickLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Submit validates the request, attempts immediate admission (with a single
// degradation attempt if the request permits it) and otherwise enqueues it.
// A deadline that has already elapsed is rejected outright. The returned id
// identifies the request for Cancel and Complete.
func (c *AdmissionController) Submit(spec RequestSpec) (RequestID, error) {
	if !spec.Requirements.NonNegative() {
		return "", ErrInvalidRequirement
	}
	for _, opt := range spec.DegradationOptions {
		if !opt.Reduction.NonNegative() {
			return "", ErrInvalidRequirement
		}
	}

	var events []Event
	c.mu.Lock()
	now := c.now()
	if spec.Deadline != nil && !spec.Deadline.After(now) {
		c.mu.Unlock()
		return "", ErrDeadlineExceeded
	}
	c.idSeq++
	r := &request{
		id:          RequestID(fmt.Sprintf("req-%d", c.idSeq)),
		spec:        spec,
		effective:   spec.Requirements,
		state:       StateSubmitted,
		seq:         c.idSeq,
		submittedAt: now,
	}
	c.requests[r.id] = r

	if !c.tryAdmit(r, DegradationSevere, now, &events) {
		r.state = StateQueued
		c.queue.push(r)
		ev := c.event(EventQueued, r, now)
		ev.Reason = ErrResourceUnavailable.Error()
		events = append(events, ev)
	}
	id := r.id
	c.mu.Unlock()

	c.bus.publish(events)
	return id, nil
}

// Cancel removes a request that is still queued. It returns false for
// unknown ids and for requests already dispatched or terminal: dispatched
// work is not interruptible by this contract.
func (c *AdmissionController) Cancel(id RequestID) bool {
	var events []Event
	c.mu.Lock()
	r, ok := c.requests[id]
	if !ok || r.state != StateQueued {
		c.mu.Unlock()
		return false
	}
	c.queue.remove(id)
	c.finalize(r, StateRejected)
	ev := c.event(EventRejected, r, c.now())
	ev.Reason = "cancelled by caller"
	events = append(events, ev)
	c.mu.Unlock()

	c.bus.publish(events)
	return true
}

// Complete releases the reservation of a dispatched request. The terminal
// state transition guarantees the release happens exactly once.
func (c *AdmissionController) Complete(id RequestID) error {
	var events []Event
	c.mu.Lock()
	r, ok := c.requests[id]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownRequest
	}
	if r.state != StateDispatched {
		c.mu.Unlock()
		return fmt.Errorf("request %s is %s, not dispatched: %w", id, r.state, ErrUnknownRequest)
	}
	c.tracker.Release(r.effective)
	delete(c.active, id)
	c.finalize(r, StateCompleted)
	events = append(events, c.event(EventCompleted, r, c.now()))
	c.mu.Unlock()

	c.bus.publish(events)
	return nil
}

// Tick refreshes resource state, classifies overall pressure, runs the
// matching pressure handler, expires elapsed deadlines and drains the queue
// in priority order. A malformed or unadmittable entry never stops the tick
// from processing the rest of the queue.
func (c *AdmissionController) Tick() {
	var events []Event
	c.mu.Lock()
	now := c.now()

	c.tracker.Sample()
	level := c.tracker.OverallPressure()
	if level != c.overall {
		c.logger.Info("system pressure changed",
			slog.String("from", c.overall.String()),
			slog.String("to", level.String()),
		)
		c.overall = level
		events = append(events, Event{Type: EventPressureChanged, Pressure: level, Timestamp: now})
	}

	c.handlePressure(level, now, &events)
	c.expireDeadlines(now, &events)
	c.drainQueue(level, now, &events)
	c.mu.Unlock()

	c.bus.publish(events)
}

// Stats returns the current queue and pressure summary. Calling it twice
// without intervening mutation returns identical values.
func (c *AdmissionController) Stats() SchedulerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SchedulerStats{
		QueueLength:       c.queue.len(),
		ActiveCount:       len(c.active),
		OverallPressure:   c.overall,
		DegradationActive: c.engine.active(),
	}
}

// ResourceState returns a per-channel snapshot.
func (c *AdmissionController) ResourceState() []ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.State()
}

// Degradation returns the applied degradation for an in-flight request, if
// one was committed.
func (c *AdmissionController) Degradation(id RequestID) (AppliedDegradation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.engine.history[id]
	return applied, ok
}

// ShedBackground rejects all queued background-priority work. It is invoked
// by the high/critical pressure handlers and by telemetry corrective actions.
func (c *AdmissionController) ShedBackground(reason string) int {
	var events []Event
	c.mu.Lock()
	n := c.shedQueued(func(r *request) bool {
		return r.spec.Priority == PriorityBackground
	}, StateRejected, EventRejected, reason, c.now(), &events)
	c.mu.Unlock()

	c.bus.publish(events)
	if n > 0 {
		c.logger.Warn("background work shed",
			slog.Int("count", n),
			slog.String("reason", reason),
		)
	}
	return n
}

// tryAdmit attempts a reservation for r, falling back to one degradation
// attempt capped at maxLevel. On success the request is dispatched.
func (c *AdmissionController) tryAdmit(r *request, maxLevel DegradationLevel, now time.Time, events *[]Event) bool {
	if c.tracker.Reserve(r.effective) {
		c.dispatch(r, now, events)
		return true
	}
	if !r.spec.CanDegrade {
		return false
	}

	shortfall := c.tracker.Shortfall(r.effective)
	opt, reduced, ok := c.engine.selectOption(r, shortfall, maxLevel)
	if !ok {
		return false
	}
	if !c.tracker.Reserve(reduced) {
		return false
	}
	r.effective = reduced
	applied := c.engine.commit(r, opt, now)
	ev := c.event(EventDegradationApplied, r, now)
	ev.Degradation = &applied
	*events = append(*events, ev)

	c.logger.Info("degradation applied",
		slog.String("request_id", string(r.id)),
		slog.String("level", opt.Level.String()),
		slog.String("description", opt.Description),
	)
	c.dispatch(r, now, events)
	return true
}

func (c *AdmissionController) dispatch(r *request, now time.Time, events *[]Event) {
	r.state = StateDispatched
	c.active[r.id] = r
	*events = append(*events, c.event(EventDispatched, r, now))
}

// finalize moves a request to a terminal state and drops controller-side
// bookkeeping, including the degradation history entry.
func (c *AdmissionController) finalize(r *request, state RequestState) {
	r.state = state
	delete(c.requests, r.id)
	c.engine.forget(r.id)
}

// handlePressure applies the per-level policy before the drain pass.
func (c *AdmissionController) handlePressure(level PressureLevel, now time.Time, events *[]Event) {
	switch level {
	case PressureMedium:
		c.logger.Info("resource pressure elevated",
			slog.String("level", level.String()),
			slog.Int("queue_length", c.queue.len()),
		)
	case PressureHigh:
		// Shed queued background work that cannot trade quality for headroom.
		n := c.shedQueued(func(r *request) bool {
			return r.spec.Priority == PriorityBackground && !r.spec.CanDegrade
		}, StateRejected, EventRejected, "shed under high pressure", now, events)
		if n > 0 {
			c.logger.Warn("background work shed under high pressure", slog.Int("count", n))
		}
	case PressureCritical:
		// Any background work still waiting is failed outright.
		n := c.shedQueued(func(r *request) bool {
			return r.spec.Priority == PriorityBackground
		}, StateExpired, EventExpired, "background work failed under critical pressure", now, events)
		if n > 0 {
			c.logger.Warn("background work failed under critical pressure", slog.Int("count", n))
		}
	}
}

// shedQueued removes queued entries matching the predicate and finalizes
// them in the given terminal state. Returns the number removed.
func (c *AdmissionController) shedQueued(match func(*request) bool, state RequestState, evType EventType, reason string, now time.Time, events *[]Event) int {
	n := 0
	for i := 0; i < c.queue.len(); {
		r := c.queue.items[i]
		if !match(r) {
			i++
			continue
		}
		c.queue.removeAt(i)
		c.finalize(r, state)
		ev := c.event(evType, r, now)
		ev.Reason = reason
		*events = append(*events, ev)
		n++
	}
	return n
}

// expireDeadlines fails queued requests whose deadline has elapsed. Deadlines
// are cooperative: they are only checked here, so the worst-case delay before
// expiry is one tick interval.
func (c *AdmissionController) expireDeadlines(now time.Time, events *[]Event) {
	c.shedQueued(func(r *request) bool {
		return r.spec.Deadline != nil && !r.spec.Deadline.After(now)
	}, StateExpired, EventExpired, "request failed: timeout", now, events)
}

// drainQueue attempts admission in priority order. Head-of-line semantics:
// when an eligible entry cannot be admitted, draining stops for this tick
// unless MaxSkipAhead allows stepping over it. Entries below the pressure
// level's priority floor are passed over without counting as blockers.
func (c *AdmissionController) drainQueue(level PressureLevel, now time.Time, events *[]Event) {
	maxLevel := degradationCap(level)
	floor := admissionFloor(level)

	skips := 0
	for i := 0; i < c.queue.len(); {
		r := c.queue.items[i]
		if r.spec.Priority < floor {
			i++
			continue
		}
		if c.tryAdmit(r, maxLevel, now, events) {
			c.queue.removeAt(i)
			continue
		}
		if skips >= c.cfg.MaxSkipAhead {
			break
		}
		skips++
		i++
	}
}

// degradationCap bounds how aggressive queue-drain degradation may be at a
// given pressure level.
func degradationCap(level PressureLevel) DegradationLevel {
	switch level {
	case PressureCritical:
		return DegradationSevere
	case PressureHigh:
		return DegradationModerate
	default:
		return DegradationMinimal
	}
}

// admissionFloor is the minimum priority admitted from the queue at a given
// pressure level.
func admissionFloor(level PressureLevel) Priority {
	switch level {
	case PressureCritical:
		return PriorityCritical
	case PressureHigh:
		return PriorityMedium
	default:
		return PriorityBackground
	}
}

func (c *AdmissionController) event(t EventType, r *request, now time.Time) Event {
	return Event{
		Type:        t,
		RequestID:   r.id,
		RequestType: r.spec.Type,
		Priority:    r.spec.Priority,
		Pressure:    c.overall,
		Timestamp:   now,
	}
}
