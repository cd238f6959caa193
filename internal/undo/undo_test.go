package undo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func TestManualScheduler_RunsDueTasksInOrder(t *testing.T) {
	s := NewManualScheduler(epoch)
	var got []int
	s.ScheduleAt(epoch.Add(3*time.Second), func() { got = append(got, 3) })
	s.ScheduleAt(epoch.Add(1*time.Second), func() { got = append(got, 1) })
	h := s.ScheduleAt(epoch.Add(2*time.Second), func() { got = append(got, 2) })

	assert.True(t, s.Cancel(h))
	assert.False(t, s.Cancel(h))

	s.Advance(2 * time.Second)
	assert.Equal(t, []int{1}, got)
	s.Advance(time.Second)
	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, epoch.Add(3*time.Second), s.Now())
}

func TestTimerScheduler_Cancel(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{}, 1)
	h := s.ScheduleAt(time.Now().Add(time.Hour), func() { fired <- struct{}{} })
	assert.Equal(t, 1, s.Pending())
	assert.True(t, s.Cancel(h))
	assert.Equal(t, 0, s.Pending())
	assert.Empty(t, fired)
}

func TestTimerScheduler_Fires(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{})
	s.ScheduleAt(time.Now(), func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTracker_UndoCancelsCommit(t *testing.T) {
	s := NewManualScheduler(epoch)
	tr := NewTracker[string](s)
	commits := 0
	p, err := tr.Begin("t1", "template", 2, 5*time.Second, func(seq uint64) {
		if _, ok := tr.Expire("t1", seq); ok {
			commits++
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.OriginalIndex)
	assert.Equal(t, epoch.Add(5*time.Second), p.CommitAt)

	undone, ok := tr.Undo("t1")
	require.True(t, ok)
	assert.Equal(t, "template", undone.Item)

	s.Advance(10 * time.Second)
	assert.Equal(t, 0, commits)
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_ExpiryCommitsOnce(t *testing.T) {
	s := NewManualScheduler(epoch)
	tr := NewTracker[string](s)
	commits := 0
	onExpire := func(seq uint64) {
		if _, ok := tr.Expire("t1", seq); ok {
			commits++
		}
	}
	_, err := tr.Begin("t1", "template", 0, 5*time.Second, onExpire)
	require.NoError(t, err)

	_, err = tr.Begin("t1", "template", 0, 5*time.Second, onExpire)
	assert.ErrorIs(t, err, ErrDeletionPending)

	s.Advance(4999 * time.Millisecond)
	assert.Equal(t, 0, commits)
	s.Advance(time.Millisecond)
	assert.Equal(t, 1, commits)
	s.Advance(time.Minute)
	assert.Equal(t, 1, commits)
}

func TestTracker_StaleExpiryIgnored(t *testing.T) {
	s := NewManualScheduler(epoch)
	tr := NewTracker[string](s)
	first, err := tr.Begin("k", "a", 0, time.Second, nil)
	require.NoError(t, err)
	tr.Undo("k")
	second, err := tr.Begin("k", "a", 0, time.Second, nil)
	require.NoError(t, err)

	_, ok := tr.Expire("k", first.Seq())
	assert.False(t, ok)
	_, ok = tr.Expire("k", second.Seq())
	assert.True(t, ok)
}

func TestTracker_NoGraceNeverSchedules(t *testing.T) {
	s := NewManualScheduler(epoch)
	tr := NewTracker[int](s)
	p, err := tr.Begin("f1", 42, 1, 0, func(uint64) { t.Fatal("must not fire") })
	require.NoError(t, err)
	assert.True(t, p.CommitAt.IsZero())
	assert.Equal(t, 0, s.Pending())
	recs := tr.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 42, recs[0].Item)

	tr.Clear()
	assert.Equal(t, 0, tr.Len())
}
