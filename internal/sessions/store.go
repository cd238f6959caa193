// Package sessions holds the ordered session list of a draft.
package sessions

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
	"github.com/aura-events/composer/pkg/validation"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Defaults configures newly added sessions.
type Defaults struct {
	Zone      *time.Location
	StartHour int
	EndHour   int
	Capacity  int
}

// DefaultDefaults is 08:00-23:00 with 50 seats.
var DefaultDefaults = Defaults{Zone: time.FixedZone("", 8*60*60), StartHour: 8, EndHour: 23, Capacity: 50}

// Patch holds the session properties to change; nil members are left as they are.
type Patch struct {
	Name          *string `json:"name,omitempty"`
	Date          *string `json:"date,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	CapacityLimit *int    `json:"capacity_limit,omitempty"`
	Unlimited     bool    `json:"unlimited,omitempty"`
}

// Store is the session slice of a draft.
type Store struct {
	items     []models.Session
	editingID string
}

// NewStore creates a store holding sessions.
func NewStore(sessions []models.Session) *Store {
	return &Store{items: append([]models.Session(nil), sessions...)}
}

// All returns a copy of the sessions in order.
func (s *Store) All() []models.Session {
	out := make([]models.Session, len(s.items))
	for i, sess := range s.items {
		out[i] = clone(sess)
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int { return len(s.items) }

// Get returns the session with id and its index.
func (s *Store) Get(id string) (models.Session, int, bool) {
	i := reorder.IndexOf(s.items, func(v models.Session) bool { return v.ID == id })
	if i < 0 {
		return models.Session{}, -1, false
	}
	return clone(s.items[i]), i, true
}

// Add appends a session dated today in the defaults' zone and makes it the editing session.
func (s *Store) Add(now time.Time, d Defaults) models.Session {
	zone := d.Zone
	if zone == nil {
		zone = DefaultDefaults.Zone
	}
	local := now.In(zone)
	day := func(hour int) string {
		return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, zone).Format(models.ClockLayout)
	}
	capacity := d.Capacity
	sess := models.Session{
		ID:            uuid.New().String(),
		Date:          local.Format(models.DateLayout),
		StartTime:     day(d.StartHour),
		EndTime:       day(d.EndHour),
		CapacityLimit: &capacity,
	}
	s.items = append(s.items, sess)
	s.editingID = sess.ID
	return clone(sess)
}

// Update applies p to the session and reports whether its date or times changed.
func (s *Store) Update(id string, p Patch) (sess models.Session, timesChanged bool, err error) {
	i := reorder.IndexOf(s.items, func(v models.Session) bool { return v.ID == id })
	if i < 0 {
		return models.Session{}, false, fmt.Errorf("update session %s: %w", id, ErrNotFound)
	}
	cur := s.items[i]
	before := cur
	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.Date != nil {
		cur.Date = *p.Date
	}
	if p.StartTime != nil {
		cur.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		cur.EndTime = *p.EndTime
	}
	if p.Unlimited {
		cur.CapacityLimit = nil
	} else if p.CapacityLimit != nil {
		v := *p.CapacityLimit
		cur.CapacityLimit = &v
	}
	s.items[i] = cur
	changed := before.Date != cur.Date || before.StartTime != cur.StartTime || before.EndTime != cur.EndTime
	return clone(cur), changed, nil
}

// Replace overwrites the whole session list.
func (s *Store) Replace(sessions []models.Session) {
	s.items = append([]models.Session(nil), sessions...)
}

// Remove deletes the session with id and returns it with its former index.
func (s *Store) Remove(id string) (models.Session, int, error) {
	i := reorder.IndexOf(s.items, func(v models.Session) bool { return v.ID == id })
	if i < 0 {
		return models.Session{}, -1, fmt.Errorf("remove session %s: %w", id, ErrNotFound)
	}
	var removed models.Session
	s.items, removed, _ = reorder.Remove(s.items, i)
	if s.editingID == id {
		s.editingID = ""
	}
	return removed, i, nil
}

// Insert puts sess back at index (clamped).
func (s *Store) Insert(index int, sess models.Session) {
	s.items = reorder.Insert(s.items, index, sess)
}

// Move reorders sessions.
func (s *Store) Move(from, to int) {
	s.items = reorder.Move(s.items, from, to)
}

// EditingID returns the session open in the editor.
func (s *Store) EditingID() string { return s.editingID }

// SetEditing opens the session with id in the editor; empty closes it.
func (s *Store) SetEditing(id string) { s.editingID = id }

// Validate checks every session.
func (s *Store) Validate() []validation.Issue {
	var issues []validation.Issue
	for i, sess := range s.items {
		issues = append(issues, ValidateSession(sess, fmt.Sprintf("sessions.%d", i))...)
	}
	return issues
}

// HasSession reports whether the draft has at least one session.
func (s *Store) HasSession() bool { return len(s.items) > 0 }

// HasError reports whether any session is invalid.
func (s *Store) HasError() bool { return len(s.Validate()) > 0 }

// ValidateSession checks one session; issue paths start with prefix.
func ValidateSession(sess models.Session, prefix string) []validation.Issue {
	issues := validation.StructWithPrefix(sess, prefix)
	if validation.HasPrefix(issues, prefix+".date") || validation.HasPrefix(issues, prefix+".start_time") ||
		validation.HasPrefix(issues, prefix+".end_time") {
		return issues
	}
	start, err := sess.Start()
	if err != nil {
		return append(issues, validation.Issue{Path: prefix + ".start_time", Tag: "datetime", Message: err.Error()})
	}
	end, err := sess.End()
	if err != nil {
		return append(issues, validation.Issue{Path: prefix + ".end_time", Tag: "datetime", Message: err.Error()})
	}
	if !start.Before(end) {
		issues = append(issues, validation.Issue{Path: prefix + ".end_time", Tag: "gtfield", Message: "must be after start time"})
	}
	return issues
}

func clone(s models.Session) models.Session {
	if s.CapacityLimit != nil {
		v := *s.CapacityLimit
		s.CapacityLimit = &v
	}
	return s
}
