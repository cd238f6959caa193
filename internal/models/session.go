package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the layout of Session.Date.
	DateLayout = "2006-01-02"
	// ClockLayout is the layout of Session.StartTime and Session.EndTime (offset included).
	ClockLayout = "15:04:05Z07:00"
)

// Session is one scheduled occurrence of the event.
type Session struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required,max=50"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"required,datetime=15:04:05Z07:00"`
	EndTime       string `json:"end_time" validate:"required,datetime=15:04:05Z07:00"`
	CapacityLimit *int   `json:"capacity_limit" validate:"omitempty,min=1,max=100000"` // nil means unlimited
}

// Start returns the session start as an absolute time in the session's own offset.
func (s Session) Start() (time.Time, error) {
	return s.at(s.StartTime)
}

// End returns the session end as an absolute time in the session's own offset.
func (s Session) End() (time.Time, error) {
	return s.at(s.EndTime)
}

func (s Session) at(clock string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s.Date+"T"+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session %s time: %w", s.ID, err)
	}
	return t, nil
}
