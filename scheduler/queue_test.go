package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedRequest(id string, seq uint64, prio Priority, deadline *time.Time) *request {
	return &request{
		id:    RequestID(id),
		seq:   seq,
		state: StateQueued,
		spec:  RequestSpec{Priority: prio, Deadline: deadline},
	}
}

func queueIDs(q *pendingQueue) []string {
	out := make([]string, 0, q.len())
	for _, r := range q.items {
		out = append(out, string(r.id))
	}
	return out
}

func TestQueuePriorityOrdering(t *testing.T) {
	q := &pendingQueue{}
	q.push(queuedRequest("r1", 1, PriorityHigh, nil))
	q.push(queuedRequest("r2", 2, PriorityLow, nil))
	q.push(queuedRequest("r3", 3, PriorityCritical, nil))

	assert.Equal(t, []string{"r3", "r1", "r2"}, queueIDs(q))
}

func TestQueueStableFIFOForEqualPriority(t *testing.T) {
	q := &pendingQueue{}
	for i := uint64(1); i <= 5; i++ {
		q.push(queuedRequest(string(rune('a'+i-1)), i, PriorityMedium, nil))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, queueIDs(q))
}

func TestQueueDeadlineOrdering(t *testing.T) {
	now := time.Now()
	soon := now.Add(time.Second)
	later := now.Add(time.Minute)

	q := &pendingQueue{}
	q.push(queuedRequest("none", 1, PriorityMedium, nil))
	q.push(queuedRequest("later", 2, PriorityMedium, &later))
	q.push(queuedRequest("soon", 3, PriorityMedium, &soon))

	// Deadlines drain before deadline-less entries, earliest first.
	assert.Equal(t, []string{"soon", "later", "none"}, queueIDs(q))
}

func TestQueueRemove(t *testing.T) {
	q := &pendingQueue{}
	q.push(queuedRequest("r1", 1, PriorityHigh, nil))
	q.push(queuedRequest("r2", 2, PriorityLow, nil))

	require.True(t, q.remove("r2"))
	assert.False(t, q.remove("r2"))
	assert.False(t, q.remove("missing"))
	assert.Equal(t, 1, q.len())
}
