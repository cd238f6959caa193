package undo

import (
	"errors"
	"time"
)

// ErrDeletionPending is returned when an entity already has a deletion awaiting undo or commit.
var ErrDeletionPending = errors.New("deletion already pending")

// Pending is a deletion that can still be undone.
type Pending[T any] struct {
	Key           string
	Item          T
	OriginalIndex int
	// CommitAt is zero for deletions that are never committed to a backing store.
	CommitAt time.Time

	seq       uint64
	handle    Handle
	scheduled bool
}

// Seq identifies this deletion among repeated deletions of the same key.
func (p Pending[T]) Seq() uint64 { return p.seq }

// Tracker holds at most one pending deletion per key.
// It is not safe for concurrent use; callers serialize access.
type Tracker[T any] struct {
	sched   Scheduler
	seq     uint64
	pending map[string]*Pending[T]
}

// NewTracker creates a tracker that schedules commits on sched.
func NewTracker[T any](sched Scheduler) *Tracker[T] {
	return &Tracker[T]{sched: sched, pending: make(map[string]*Pending[T])}
}

// Begin records the deletion of item, which sat at index. With grace > 0 and a
// non-nil onExpire, onExpire(seq) is scheduled grace from now; it should call
// Expire(key, seq) under the caller's lock to claim the record.
func (t *Tracker[T]) Begin(key string, item T, index int, grace time.Duration, onExpire func(seq uint64)) (Pending[T], error) {
	if _, ok := t.pending[key]; ok {
		return Pending[T]{}, ErrDeletionPending
	}
	t.seq++
	p := &Pending[T]{Key: key, Item: item, OriginalIndex: index, seq: t.seq}
	if grace > 0 && onExpire != nil {
		p.CommitAt = t.sched.Now().Add(grace)
		seq := p.seq
		p.handle = t.sched.ScheduleAt(p.CommitAt, func() { onExpire(seq) })
		p.scheduled = true
	}
	t.pending[key] = p
	return *p, nil
}

// Undo removes the record for key and cancels its commit.
func (t *Tracker[T]) Undo(key string) (Pending[T], bool) {
	p, ok := t.pending[key]
	if !ok {
		return Pending[T]{}, false
	}
	if p.scheduled {
		t.sched.Cancel(p.handle)
	}
	delete(t.pending, key)
	return *p, true
}

// Expire claims the record for key if it is still the deletion identified by seq.
func (t *Tracker[T]) Expire(key string, seq uint64) (Pending[T], bool) {
	p, ok := t.pending[key]
	if !ok || p.seq != seq {
		return Pending[T]{}, false
	}
	delete(t.pending, key)
	return *p, true
}

// Get returns the record for key.
func (t *Tracker[T]) Get(key string) (Pending[T], bool) {
	p, ok := t.pending[key]
	if !ok {
		return Pending[T]{}, false
	}
	return *p, true
}

// Len returns the number of pending deletions.
func (t *Tracker[T]) Len() int { return len(t.pending) }

// Clear cancels every scheduled commit and forgets all records.
func (t *Tracker[T]) Clear() {
	for k, p := range t.pending {
		if p.scheduled {
			t.sched.Cancel(p.handle)
		}
		delete(t.pending, k)
	}
}

// Records returns every pending deletion.
func (t *Tracker[T]) Records() []Pending[T] {
	out := make([]Pending[T], 0, len(t.pending))
	for _, p := range t.pending {
		out = append(out, *p)
	}
	return out
}
