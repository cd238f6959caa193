// Package tickets holds the ordered ticket list of a draft and keeps each
// ticket's sale windows in step with the sessions it is linked to.
package tickets

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
	"github.com/aura-events/composer/internal/saletime"
)

var (
	// ErrNotFound is returned for an unknown ticket id.
	ErrNotFound = errors.New("ticket not found")
	// ErrUnknownSession is returned when linking a session that does not exist.
	ErrUnknownSession = errors.New("session not found")
)

// Defaults for a newly added ticket.
const (
	DefaultName  = "General admission"
	DefaultPrice = 200
	DefaultCount = 50
)

// DefaultOffset opens sales one day before the session starts and closes them one day before it ends.
var DefaultOffset = models.Offset{
	StartOffset:     1,
	StartOffsetBase: models.OffsetBaseDay,
	EndOffset:       1,
	EndOffsetBase:   models.OffsetBaseDay,
}

// Patch holds the plain ticket properties to change; nil members are left as they are.
type Patch struct {
	Name  *string             `json:"name,omitempty"`
	Price *int                `json:"price,omitempty"`
	Count *int                `json:"count,omitempty"`
	State *models.TicketState `json:"state,omitempty"`
}

// Link records a sale window removed together with a session.
type Link struct {
	TicketID string
	Index    int
	Entry    models.SaleTime
}

// Store is the ticket slice of a draft. Sale windows are written only through saletime.
type Store struct {
	items     []models.Ticket
	editingID string
}

// NewStore creates a store holding tickets.
func NewStore(tickets []models.Ticket) *Store {
	s := &Store{}
	for _, t := range tickets {
		s.items = append(s.items, clone(t))
	}
	return s
}

// All returns a copy of the tickets in order.
func (s *Store) All() []models.Ticket {
	out := make([]models.Ticket, len(s.items))
	for i, t := range s.items {
		out[i] = clone(t)
	}
	return out
}

// Len returns the number of tickets.
func (s *Store) Len() int { return len(s.items) }

// Get returns the ticket with id and its index.
func (s *Store) Get(id string) (models.Ticket, int, bool) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, -1, false
	}
	return clone(s.items[i]), i, true
}

// EditingID returns the ticket open in the editor.
func (s *Store) EditingID() string { return s.editingID }

// SetEditing opens the ticket with id in the editor; empty closes it.
func (s *Store) SetEditing(id string) { s.editingID = id }

// Add appends a default ticket linked to every session that starts after now.
func (s *Store) Add(sessions []models.Session, now time.Time) (models.Ticket, error) {
	start := now.Truncate(time.Hour)
	t := models.Ticket{
		ID:           uuid.New().String(),
		Name:         DefaultName,
		Price:        DefaultPrice,
		Count:        DefaultCount,
		State:        models.TicketSelling,
		SaleTimeType: models.SaleTimePerOffset,
		GlobalTime: &models.GlobalTime{
			CommonStartTime: start.Format(saletime.Layout),
			CommonEndTime:   start.AddDate(0, 1, 0).Format(saletime.Layout),
		},
		Offset:   DefaultOffset,
		SaleTime: []models.SaleTime{},
	}
	for _, sess := range sessions {
		st, err := sess.Start()
		if err != nil || !st.After(now) {
			continue
		}
		entry, err := saletime.Entry(sess, t.Offset)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("add ticket: %w", err)
		}
		t.SaleTime = append(t.SaleTime, entry)
	}
	s.items = append(s.items, t)
	s.editingID = t.ID
	return clone(t), nil
}

// Update applies p to the ticket.
func (s *Store) Update(id string, p Patch) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("update ticket %s: %w", id, ErrNotFound)
	}
	t := &s.items[i]
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Count != nil {
		t.Count = *p.Count
	}
	if p.State != nil {
		t.State = *p.State
	}
	return clone(*t), nil
}

// SetOffset changes the ticket offset and re-derives its per-offset windows.
func (s *Store) SetOffset(id string, o models.Offset, sessions []models.Session) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("set offset %s: %w", id, ErrNotFound)
	}
	t := clone(s.items[i])
	t.Offset = o
	if t.SaleTimeType == models.SaleTimePerOffset {
		if err := rederive(&t, byID(sessions)); err != nil {
			return models.Ticket{}, fmt.Errorf("set offset %s: %w", id, err)
		}
	}
	s.items[i] = t
	return clone(t), nil
}

// SetSaleTimeType switches the window mode. Switching to per-offset re-derives
// every window at once; switching to uniform keeps the stored windows until
// Normalize runs.
func (s *Store) SetSaleTimeType(id string, typ models.SaleTimeType, sessions []models.Session) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("set sale time type %s: %w", id, ErrNotFound)
	}
	prev := s.items[i].SaleTimeType
	s.items[i].SaleTimeType = typ
	if typ == models.SaleTimePerOffset && prev != typ {
		if err := rederive(&s.items[i], byID(sessions)); err != nil {
			return models.Ticket{}, fmt.Errorf("set sale time type %s: %w", id, err)
		}
	}
	return clone(s.items[i]), nil
}

// SetGlobalTime changes the shared window of a uniform ticket.
func (s *Store) SetGlobalTime(id string, g models.GlobalTime) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("set global time %s: %w", id, ErrNotFound)
	}
	s.items[i].GlobalTime = &g
	return clone(s.items[i]), nil
}

// SetSessionLinked adds or removes one session from the ticket. Only that
// session's window is computed.
func (s *Store) SetSessionLinked(id string, sess models.Session, linked bool) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("link session: %w", ErrNotFound)
	}
	t := &s.items[i]
	j := reorder.IndexOf(t.SaleTime, func(st models.SaleTime) bool { return st.SessionID == sess.ID })
	switch {
	case linked && j < 0:
		entry, err := saletime.ForTicket(*t, sess)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("link session %s: %w", sess.ID, err)
		}
		t.SaleTime = append(t.SaleTime, entry)
	case !linked && j >= 0:
		t.SaleTime, _, _ = reorder.Remove(t.SaleTime, j)
	}
	return clone(*t), nil
}

// SetAllSessions links every session (computing all windows in one pass) or unlinks them all.
func (s *Store) SetAllSessions(id string, sessions []models.Session, linked bool) (models.Ticket, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, fmt.Errorf("link all sessions: %w", ErrNotFound)
	}
	t := &s.items[i]
	if !linked {
		t.SaleTime = []models.SaleTime{}
		return clone(*t), nil
	}
	entries := make([]models.SaleTime, 0, len(sessions))
	for _, sess := range sessions {
		entry, err := saletime.ForTicket(*t, sess)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("link all sessions: %w", err)
		}
		entries = append(entries, entry)
	}
	t.SaleTime = entries
	return clone(*t), nil
}

// SessionChanged re-derives the windows of sess for every per-offset ticket linked to it.
func (s *Store) SessionChanged(sess models.Session) error {
	for i := range s.items {
		t := &s.items[i]
		if t.SaleTimeType != models.SaleTimePerOffset {
			continue
		}
		for j := range t.SaleTime {
			if t.SaleTime[j].SessionID != sess.ID {
				continue
			}
			entry, err := saletime.Entry(sess, t.Offset)
			if err != nil {
				return fmt.Errorf("session %s changed: %w", sess.ID, err)
			}
			t.SaleTime[j] = entry
		}
	}
	return nil
}

// SessionRemoved drops every window of sessionID and returns what was dropped.
func (s *Store) SessionRemoved(sessionID string) []Link {
	var links []Link
	for i := range s.items {
		t := &s.items[i]
		j := reorder.IndexOf(t.SaleTime, func(st models.SaleTime) bool { return st.SessionID == sessionID })
		if j < 0 {
			continue
		}
		links = append(links, Link{TicketID: t.ID, Index: j, Entry: t.SaleTime[j]})
		t.SaleTime, _, _ = reorder.Remove(t.SaleTime, j)
	}
	return links
}

// RestoreLinks puts back windows dropped by SessionRemoved once sess exists again.
// Per-offset windows are re-derived from the current offset.
func (s *Store) RestoreLinks(sess models.Session, links []Link) error {
	for _, l := range links {
		i := s.index(l.TicketID)
		if i < 0 || s.items[i].HasSession(sess.ID) {
			continue
		}
		t := &s.items[i]
		entry := l.Entry
		if t.SaleTimeType == models.SaleTimePerOffset {
			var err error
			if entry, err = saletime.Entry(sess, t.Offset); err != nil {
				return fmt.Errorf("restore ticket %s: %w", t.ID, err)
			}
		}
		t.SaleTime = reorder.Insert(t.SaleTime, l.Index, entry)
	}
	return nil
}

// Normalize runs on leaving the ticket step: uniform tickets get their global
// window on every entry, per-offset tickets are re-derived.
func (s *Store) Normalize(sessions []models.Session) error {
	idx := byID(sessions)
	for i := range s.items {
		t := &s.items[i]
		switch t.SaleTimeType {
		case models.SaleTimeUniform:
			if t.GlobalTime == nil {
				continue
			}
			for j := range t.SaleTime {
				t.SaleTime[j].StartTime = t.GlobalTime.CommonStartTime
				t.SaleTime[j].EndTime = t.GlobalTime.CommonEndTime
			}
		case models.SaleTimePerOffset:
			if err := rederive(t, idx); err != nil {
				return fmt.Errorf("normalize ticket %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

// Reconcile drops windows whose session no longer exists and re-derives every per-offset window.
func (s *Store) Reconcile(sessions []models.Session) error {
	idx := byID(sessions)
	for i := range s.items {
		t := &s.items[i]
		if t.SaleTimeType == models.SaleTimePerOffset {
			if err := rederive(t, idx); err != nil {
				return fmt.Errorf("reconcile ticket %s: %w", t.ID, err)
			}
			continue
		}
		kept := t.SaleTime[:0]
		for _, st := range t.SaleTime {
			if _, ok := idx[st.SessionID]; ok {
				kept = append(kept, st)
			}
		}
		t.SaleTime = kept
	}
	return nil
}

// Replace overwrites the whole ticket list.
func (s *Store) Replace(tickets []models.Ticket) {
	s.items = s.items[:0]
	for _, t := range tickets {
		s.items = append(s.items, clone(t))
	}
}

// Remove deletes the ticket with id and returns it with its former index.
func (s *Store) Remove(id string) (models.Ticket, int, error) {
	i := s.index(id)
	if i < 0 {
		return models.Ticket{}, -1, fmt.Errorf("remove ticket %s: %w", id, ErrNotFound)
	}
	var removed models.Ticket
	s.items, removed, _ = reorder.Remove(s.items, i)
	if s.editingID == id {
		s.editingID = ""
	}
	return removed, i, nil
}

// Insert puts t back at index (clamped).
func (s *Store) Insert(index int, t models.Ticket) {
	s.items = reorder.Insert(s.items, index, clone(t))
}

// Move reorders tickets.
func (s *Store) Move(from, to int) {
	s.items = reorder.Move(s.items, from, to)
}

// AllStopped reports whether no ticket is on sale.
func (s *Store) AllStopped() bool {
	for _, t := range s.items {
		if t.State != models.TicketStopped {
			return false
		}
	}
	return true
}

func (s *Store) index(id string) int {
	return reorder.IndexOf(s.items, func(t models.Ticket) bool { return t.ID == id })
}

// rederive recomputes each window from its session; windows of missing sessions are dropped.
func rederive(t *models.Ticket, sessions map[string]models.Session) error {
	out := make([]models.SaleTime, 0, len(t.SaleTime))
	for _, st := range t.SaleTime {
		sess, ok := sessions[st.SessionID]
		if !ok {
			continue
		}
		entry, err := saletime.Entry(sess, t.Offset)
		if err != nil {
			return err
		}
		out = append(out, entry)
	}
	t.SaleTime = out
	return nil
}

func byID(sessions []models.Session) map[string]models.Session {
	m := make(map[string]models.Session, len(sessions))
	for _, s := range sessions {
		m[s.ID] = s
	}
	return m
}

func clone(t models.Ticket) models.Ticket {
	if t.GlobalTime != nil {
		g := *t.GlobalTime
		t.GlobalTime = &g
	}
	if t.SaleTime != nil {
		t.SaleTime = append([]models.SaleTime{}, t.SaleTime...)
	}
	return t
}
