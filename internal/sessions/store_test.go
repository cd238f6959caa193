package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 2, 30, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestAdd_Defaults(t *testing.T) {
	s := NewStore(nil)
	sess := s.Add(now, DefaultDefaults)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "2025-06-01", sess.Date)
	assert.Equal(t, "08:00:00+08:00", sess.StartTime)
	assert.Equal(t, "23:00:00+08:00", sess.EndTime)
	require.NotNil(t, sess.CapacityLimit)
	assert.Equal(t, 50, *sess.CapacityLimit)
	assert.Equal(t, sess.ID, s.EditingID())
	assert.Equal(t, 1, s.Len())
}

func TestAdd_DateFollowsZone(t *testing.T) {
	s := NewStore(nil)
	late := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	sess := s.Add(late, DefaultDefaults)
	assert.Equal(t, "2025-06-02", sess.Date)
}

func TestUpdate_ReportsTimeChanges(t *testing.T) {
	s := NewStore(nil)
	sess := s.Add(now, DefaultDefaults)

	_, changed, err := s.Update(sess.ID, Patch{Name: strp("Morning")})
	require.NoError(t, err)
	assert.False(t, changed)

	got, changed, err := s.Update(sess.ID, Patch{StartTime: strp("09:00:00+08:00")})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "09:00:00+08:00", got.StartTime)

	got, _, err = s.Update(sess.ID, Patch{Unlimited: true})
	require.NoError(t, err)
	assert.Nil(t, got.CapacityLimit)

	_, _, err = s.Update("missing", Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveInsert_RestoresOrder(t *testing.T) {
	s := NewStore(nil)
	a := s.Add(now, DefaultDefaults)
	b := s.Add(now, DefaultDefaults)
	c := s.Add(now, DefaultDefaults)
	before := s.All()

	removed, idx, err := s.Remove(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{a.ID, c.ID}, ids(s))

	s.Insert(idx, removed)
	assert.Equal(t, before, s.All())
}

func TestValidate(t *testing.T) {
	s := NewStore(nil)
	sess := s.Add(now, DefaultDefaults)
	issues := s.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "sessions.0.name", issues[0].Path)

	_, _, err := s.Update(sess.ID, Patch{Name: strp("Evening"), StartTime: strp("21:00:00+08:00"), EndTime: strp("20:00:00+08:00")})
	require.NoError(t, err)
	issues = s.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "sessions.0.end_time", issues[0].Path)

	_, _, err = s.Update(sess.ID, Patch{EndTime: strp("22:00:00+08:00"), CapacityLimit: intp(0)})
	require.NoError(t, err)
	issues = s.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "sessions.0.capacity_limit", issues[0].Path)

	_, _, err = s.Update(sess.ID, Patch{Unlimited: true})
	require.NoError(t, err)
	assert.False(t, s.HasError())
}

func ids(s *Store) []string {
	var out []string
	for _, sess := range s.All() {
		out = append(out, sess.ID)
	}
	return out
}

func TestFlags(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.HasSession())
	assert.False(t, s.HasError())

	sess := s.Add(now, DefaultDefaults)
	assert.True(t, s.HasSession())
	assert.True(t, s.HasError(), "a new session has no name yet")

	_, _, err := s.Update(sess.ID, Patch{Name: strp("Opening night")})
	require.NoError(t, err)
	assert.False(t, s.HasError())
}
