package scheduler

import (
	"sort"
)

// pendingQueue is the ordered multiset of queued requests. Ordering key:
// priority descending, deadline ascending with absent deadlines last, then
// arrival sequence ascending. Insertion is stable: two requests with the same
// priority and no deadline keep submission order.
type pendingQueue struct {
	items []*request
}

// before reports whether a must drain strictly ahead of b.
func (q *pendingQueue) before(a, b *request) bool {
	if a.spec.Priority != b.spec.Priority {
		return a.spec.Priority > b.spec.Priority
	}
	ad, bd := a.spec.Deadline, b.spec.Deadline
	switch {
	case ad != nil && bd == nil:
		return true
	case ad == nil && bd != nil:
		return false
	case ad != nil && bd != nil && !ad.Equal(*bd):
		return ad.Before(*bd)
	}
	return a.seq < b.seq
}

// push inserts r at its ordered position.
func (q *pendingQueue) push(r *request) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return q.before(r, q.items[i])
	})
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = r
}

// removeAt deletes the entry at index i, preserving order.
func (q *pendingQueue) removeAt(i int) *request {
	r := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return r
}

// remove deletes the entry with the given id and reports whether it existed.
func (q *pendingQueue) remove(id RequestID) bool {
	for i, r := range q.items {
		if r.id == id {
			q.removeAt(i)
			return true
		}
	}
	return false
}

func (q *pendingQueue) len() int {
	return len(q.items)
}
