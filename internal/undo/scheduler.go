// Package undo holds the pending-deletion records and timer abstraction behind undo-able deletes.
package undo

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled callback.
type Handle uint64

// Scheduler runs callbacks at a point in time and can cancel them before they run.
type Scheduler interface {
	Now() time.Time
	ScheduleAt(at time.Time, fn func()) Handle
	// Cancel reports whether the callback was stopped before it ran.
	Cancel(h Handle) bool
}

// TimerScheduler is a Scheduler backed by time.AfterFunc.
type TimerScheduler struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// NewTimerScheduler creates a wall-clock scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[Handle]*time.Timer)}
}

// Now returns the wall clock.
func (s *TimerScheduler) Now() time.Time { return time.Now() }

// ScheduleAt runs fn on its own goroutine at at.
func (s *TimerScheduler) ScheduleAt(at time.Time, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(time.Until(at), func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		fn()
	})
	return h
}

// Cancel stops the timer behind h.
func (s *TimerScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	t, ok := s.timers[h]
	delete(s.timers, h)
	s.mu.Unlock()
	if !ok {
		return false
	}
	return t.Stop()
}

// Pending returns the number of timers not yet fired or cancelled.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type manualTask struct {
	h  Handle
	at time.Time
	fn func()
}

// ManualScheduler is a Scheduler driven by Advance, for deterministic tests.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	next  Handle
	tasks []manualTask
}

// NewManualScheduler creates a scheduler whose clock starts at now.
func NewManualScheduler(now time.Time) *ManualScheduler {
	return &ManualScheduler{now: now}
}

// Now returns the simulated clock.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// ScheduleAt queues fn until the clock passes at.
func (s *ManualScheduler) ScheduleAt(at time.Time, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.tasks = append(s.tasks, manualTask{h: s.next, at: at, fn: fn})
	return s.next
}

// Cancel removes a queued callback.
func (s *ManualScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.h == h {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d and runs every due callback in time order
// on the calling goroutine.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool { return s.tasks[i].at.Before(s.tasks[j].at) })
		if len(s.tasks) == 0 || s.tasks[0].at.After(s.now) {
			s.mu.Unlock()
			return
		}
		t := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.mu.Unlock()
		t.fn()
	}
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
