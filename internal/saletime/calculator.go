// Package saletime derives ticket sale windows from session times.
// It is the only code that produces Ticket.SaleTime entries.
package saletime

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aura-events/composer/internal/models"
)

// Edge selects which session boundary anchors a derived time.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Layout is the format of derived timestamps.
const Layout = time.RFC3339

// DefaultOffsetBase is used when an offset carries no unit.
const DefaultOffsetBase = models.OffsetBaseDay

// ErrOffsetRange is returned for offsets that are negative or too far from the session.
var ErrOffsetRange = errors.New("offset out of range")

const maxOffsetMinutes = math.MaxInt64 / int64(time.Minute)

// Derive anchors on the session start (EdgeStart) or end (EdgeEnd) and moves
// offset*offsetBase minutes earlier. The session's UTC offset is preserved.
func Derive(s models.Session, edge Edge, offset, offsetBase int) (string, error) {
	var (
		anchor time.Time
		err    error
	)
	switch edge {
	case EdgeStart:
		anchor, err = s.Start()
	case EdgeEnd:
		anchor, err = s.End()
	default:
		return "", fmt.Errorf("unknown edge %d", edge)
	}
	if err != nil {
		return "", err
	}
	if offsetBase == 0 {
		offsetBase = DefaultOffsetBase
	}
	if offset < 0 || offsetBase < 0 || int64(offset) > maxOffsetMinutes/int64(offsetBase) {
		return "", fmt.Errorf("%d x %d minutes: %w", offset, offsetBase, ErrOffsetRange)
	}
	return anchor.Add(-time.Duration(int64(offset)*int64(offsetBase)) * time.Minute).Format(Layout), nil
}

// Entry derives the per-offset sale window of one session.
func Entry(s models.Session, o models.Offset) (models.SaleTime, error) {
	start, err := Derive(s, EdgeStart, o.StartOffset, o.StartOffsetBase)
	if err != nil {
		return models.SaleTime{}, fmt.Errorf("derive start: %w", err)
	}
	end, err := Derive(s, EdgeEnd, o.EndOffset, o.EndOffsetBase)
	if err != nil {
		return models.SaleTime{}, fmt.Errorf("derive end: %w", err)
	}
	return models.SaleTime{SessionID: s.ID, StartTime: start, EndTime: end}, nil
}

// Uniform returns the sale window of a session linked to a uniform ticket.
// Without a global window the session's own times are used.
func Uniform(s models.Session, g *models.GlobalTime) (models.SaleTime, error) {
	if g != nil && g.CommonStartTime != "" && g.CommonEndTime != "" {
		return models.SaleTime{SessionID: s.ID, StartTime: g.CommonStartTime, EndTime: g.CommonEndTime}, nil
	}
	start, err := s.Start()
	if err != nil {
		return models.SaleTime{}, err
	}
	end, err := s.End()
	if err != nil {
		return models.SaleTime{}, err
	}
	return models.SaleTime{SessionID: s.ID, StartTime: start.Format(Layout), EndTime: end.Format(Layout)}, nil
}

// ForTicket computes the sale window of session s under the ticket's current mode.
func ForTicket(t models.Ticket, s models.Session) (models.SaleTime, error) {
	if t.SaleTimeType == models.SaleTimeUniform {
		return Uniform(s, t.GlobalTime)
	}
	return Entry(s, t.Offset)
}
