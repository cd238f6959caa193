package tickets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/saletime"
)

var now = time.Date(2025, 5, 1, 9, 45, 0, 0, time.FixedZone("", 8*60*60))

func sessionsFixture() []models.Session {
	return []models.Session{
		{ID: "s1", Name: "Day 1", Date: "2025-06-01", StartTime: "08:00:00+08:00", EndTime: "20:00:00+08:00"},
		{ID: "s2", Name: "Day 2", Date: "2025-06-02", StartTime: "10:00:00+08:00", EndTime: "18:00:00+08:00"},
		{ID: "past", Name: "Preview", Date: "2025-04-01", StartTime: "10:00:00+08:00", EndTime: "12:00:00+08:00"},
	}
}

func TestAdd_DefaultsLinkFutureSessions(t *testing.T) {
	s := NewStore(nil)
	tk, err := s.Add(sessionsFixture(), now)
	require.NoError(t, err)

	assert.Equal(t, DefaultName, tk.Name)
	assert.Equal(t, DefaultPrice, tk.Price)
	assert.Equal(t, DefaultCount, tk.Count)
	assert.Equal(t, models.TicketSelling, tk.State)
	assert.Equal(t, models.SaleTimePerOffset, tk.SaleTimeType)
	assert.Equal(t, "2025-05-01T09:00:00+08:00", tk.GlobalTime.CommonStartTime)
	assert.Equal(t, "2025-06-01T09:00:00+08:00", tk.GlobalTime.CommonEndTime)
	assert.Equal(t, []models.SaleTime{
		{SessionID: "s1", StartTime: "2025-05-31T08:00:00+08:00", EndTime: "2025-05-31T20:00:00+08:00"},
		{SessionID: "s2", StartTime: "2025-06-01T10:00:00+08:00", EndTime: "2025-06-01T18:00:00+08:00"},
	}, tk.SaleTime)
	assert.Equal(t, tk.ID, s.EditingID())
}

func TestSetOffset_RecomputesPerOffset(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)

	tk, err = s.SetOffset(tk.ID, models.Offset{StartOffset: 2, StartOffsetBase: 60, EndOffset: 30, EndOffsetBase: 1}, sessions)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T06:00:00+08:00", tk.SaleTime[0].StartTime)
	assert.Equal(t, "2025-06-01T19:30:00+08:00", tk.SaleTime[0].EndTime)
	assert.Equal(t, "2025-06-02T08:00:00+08:00", tk.SaleTime[1].StartTime)
}

func TestSetOffset_UniformKeepsWindows(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)
	tk, err = s.SetSaleTimeType(tk.ID, models.SaleTimeUniform, sessions)
	require.NoError(t, err)
	before := tk.SaleTime

	tk, err = s.SetOffset(tk.ID, models.Offset{StartOffset: 5, StartOffsetBase: 1440, EndOffset: 0, EndOffsetBase: 1440}, sessions)
	require.NoError(t, err)
	assert.Equal(t, before, tk.SaleTime)
}

func TestSetSaleTimeType_ToPerOffsetRecomputesImmediately(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)
	_, err = s.SetSaleTimeType(tk.ID, models.SaleTimeUniform, sessions)
	require.NoError(t, err)
	_, err = s.SetGlobalTime(tk.ID, models.GlobalTime{CommonStartTime: "2025-05-10T00:00:00+08:00", CommonEndTime: "2025-05-20T00:00:00+08:00"})
	require.NoError(t, err)
	require.NoError(t, s.Normalize(sessions))
	tk, _, _ = s.Get(tk.ID)
	assert.Equal(t, "2025-05-10T00:00:00+08:00", tk.SaleTime[1].StartTime)

	tk, err = s.SetSaleTimeType(tk.ID, models.SaleTimePerOffset, sessions)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-31T08:00:00+08:00", tk.SaleTime[0].StartTime)
	assert.Equal(t, "2025-06-01T10:00:00+08:00", tk.SaleTime[1].StartTime)
}

func TestSetSessionLinked_ComputesOnlyThatEntry(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)

	tk, err = s.SetSessionLinked(tk.ID, sessions[0], false)
	require.NoError(t, err)
	require.Len(t, tk.SaleTime, 1)
	assert.Equal(t, "s2", tk.SaleTime[0].SessionID)

	tk, err = s.SetSessionLinked(tk.ID, sessions[2], true)
	require.NoError(t, err)
	require.Len(t, tk.SaleTime, 2)
	assert.Equal(t, models.SaleTime{SessionID: "past", StartTime: "2025-03-31T10:00:00+08:00", EndTime: "2025-03-31T12:00:00+08:00"}, tk.SaleTime[1])

	again, err := s.SetSessionLinked(tk.ID, sessions[2], true)
	require.NoError(t, err)
	assert.Equal(t, tk.SaleTime, again.SaleTime)
}

func TestSetAllSessions(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)

	tk, err = s.SetAllSessions(tk.ID, sessions, true)
	require.NoError(t, err)
	assert.Len(t, tk.SaleTime, 3)

	tk, err = s.SetAllSessions(tk.ID, sessions, false)
	require.NoError(t, err)
	assert.Empty(t, tk.SaleTime)
}

func TestSessionChanged(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)

	moved := sessions[0]
	moved.StartTime = "12:00:00+08:00"
	require.NoError(t, s.SessionChanged(moved))
	tk, _, _ = s.Get(tk.ID)
	assert.Equal(t, "2025-05-31T12:00:00+08:00", tk.SaleTime[0].StartTime)
	assert.Equal(t, "2025-06-01T10:00:00+08:00", tk.SaleTime[1].StartTime)
}

func TestSessionRemovedAndRestored(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	a, err := s.Add(sessions, now)
	require.NoError(t, err)
	b, err := s.Add(sessions, now)
	require.NoError(t, err)
	before := s.All()

	links := s.SessionRemoved("s1")
	require.Len(t, links, 2)
	for _, tk := range s.All() {
		assert.False(t, tk.HasSession("s1"))
	}
	assert.Empty(t, s.Validate(sessions[1:]))

	require.NoError(t, s.RestoreLinks(sessions[0], links))
	assert.Equal(t, before, s.All())
	_ = a
	_ = b
}

func TestNormalize(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	uni, err := s.Add(sessions, now)
	require.NoError(t, err)
	per, err := s.Add(sessions, now)
	require.NoError(t, err)

	_, err = s.SetSaleTimeType(uni.ID, models.SaleTimeUniform, sessions)
	require.NoError(t, err)
	g := models.GlobalTime{CommonStartTime: "2025-05-02T00:00:00+08:00", CommonEndTime: "2025-05-30T00:00:00+08:00"}
	_, err = s.SetGlobalTime(uni.ID, g)
	require.NoError(t, err)

	require.NoError(t, s.Normalize(sessions))
	require.NoError(t, s.Normalize(sessions))

	got, _, _ := s.Get(uni.ID)
	for _, st := range got.SaleTime {
		assert.Equal(t, g.CommonStartTime, st.StartTime)
		assert.Equal(t, g.CommonEndTime, st.EndTime)
	}
	gotPer, _, _ := s.Get(per.ID)
	assert.Equal(t, per.SaleTime, gotPer.SaleTime)
}

func TestValidate(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)
	assert.Empty(t, s.Validate(sessions))

	price := models.MaxTicketPrice + 1
	_, err = s.Update(tk.ID, Patch{Price: &price})
	require.NoError(t, err)
	issues := s.Validate(sessions)
	require.Len(t, issues, 1)
	assert.Equal(t, "tickets.0.price", issues[0].Path)

	price = 0
	_, err = s.Update(tk.ID, Patch{Price: &price})
	require.NoError(t, err)
	_, err = s.SetAllSessions(tk.ID, sessions, false)
	require.NoError(t, err)
	issues = s.Validate(sessions)
	require.Len(t, issues, 1)
	assert.Equal(t, "tickets.0.sale_time", issues[0].Path)

	_, err = s.SetAllSessions(tk.ID, sessions, true)
	require.NoError(t, err)
	issues = s.Validate(sessions[:1])
	assert.Len(t, issues, 2)
}

func TestAllStopped(t *testing.T) {
	s := NewStore(nil)
	tk, err := s.Add(nil, now)
	require.NoError(t, err)
	assert.False(t, s.AllStopped())
	stopped := models.TicketStopped
	_, err = s.Update(tk.ID, Patch{State: &stopped})
	require.NoError(t, err)
	assert.True(t, s.AllStopped())
}

func TestRemoveInsert(t *testing.T) {
	s := NewStore(nil)
	a, _ := s.Add(nil, now)
	b, _ := s.Add(nil, now)
	before := s.All()
	removed, idx, err := s.Remove(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, b.ID, s.All()[0].ID)
	s.Insert(idx, removed)
	assert.Equal(t, before, s.All())

	_, _, err = s.Remove("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcile_DropsDanglingWindows(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	per, err := s.Add(sessions, now)
	require.NoError(t, err)
	uni, err := s.Add(sessions, now)
	require.NoError(t, err)
	_, err = s.SetSaleTimeType(uni.ID, models.SaleTimeUniform, sessions)
	require.NoError(t, err)

	require.NoError(t, s.Reconcile(sessions[1:]))
	for _, id := range []string{per.ID, uni.ID} {
		tk, _, _ := s.Get(id)
		require.Len(t, tk.SaleTime, 1)
		assert.Equal(t, "s2", tk.SaleTime[0].SessionID)
	}
}

func TestFlags(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	assert.False(t, s.HasTicket())
	assert.False(t, s.HasError(sessions))

	tk, err := s.Add(sessions, now)
	require.NoError(t, err)
	assert.True(t, s.HasTicket())
	assert.False(t, s.HasError(sessions))

	empty := ""
	_, err = s.Update(tk.ID, Patch{Name: &empty})
	require.NoError(t, err)
	assert.True(t, s.HasError(sessions))
	assert.True(t, s.HasError(sessions[2:]), "windows of missing sessions are errors too")
}

func TestSetOffset_OutOfRangeLeavesTicket(t *testing.T) {
	sessions := sessionsFixture()
	s := NewStore(nil)
	tk, err := s.Add(sessions, now)
	require.NoError(t, err)

	_, err = s.SetOffset(tk.ID, models.Offset{StartOffset: 1 << 40, StartOffsetBase: models.OffsetBaseDay}, sessions)
	assert.ErrorIs(t, err, saletime.ErrOffsetRange)
	got, _, _ := s.Get(tk.ID)
	assert.Equal(t, tk, got)
}
