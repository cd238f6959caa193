package tickets

import (
	"fmt"
	"time"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/pkg/validation"
)

// Validate checks every ticket against sessions.
func (s *Store) Validate(sessions []models.Session) []validation.Issue {
	idx := byID(sessions)
	var issues []validation.Issue
	for i, t := range s.items {
		issues = append(issues, ValidateTicket(t, idx, fmt.Sprintf("tickets.%d", i))...)
	}
	return issues
}

// HasTicket reports whether the draft has at least one ticket.
func (s *Store) HasTicket() bool { return len(s.items) > 0 }

// HasError reports whether any ticket is invalid.
func (s *Store) HasError(sessions []models.Session) bool {
	return len(s.Validate(sessions)) > 0
}

// ValidateTicket checks one ticket; issue paths start with prefix.
func ValidateTicket(t models.Ticket, sessions map[string]models.Session, prefix string) []validation.Issue {
	issues := validation.StructWithPrefix(t, prefix)
	for j, st := range t.SaleTime {
		if _, ok := sessions[st.SessionID]; !ok {
			issues = append(issues, validation.Issue{
				Path:    fmt.Sprintf("%s.sale_time.%d.session_id", prefix, j),
				Tag:     "exists",
				Message: "references a removed session",
			})
		}
	}
	if t.SaleTimeType == models.SaleTimeUniform {
		issues = append(issues, validateGlobalTime(t.GlobalTime, prefix+".global_time")...)
	}
	return issues
}

func validateGlobalTime(g *models.GlobalTime, path string) []validation.Issue {
	if g == nil || g.CommonStartTime == "" || g.CommonEndTime == "" {
		return []validation.Issue{{Path: path, Tag: "required", Message: "is required for uniform sale time"}}
	}
	start, err := time.Parse(time.RFC3339, g.CommonStartTime)
	if err != nil {
		return []validation.Issue{{Path: path + ".common_start_time", Tag: "datetime", Message: "must be an RFC 3339 timestamp"}}
	}
	end, err := time.Parse(time.RFC3339, g.CommonEndTime)
	if err != nil {
		return []validation.Issue{{Path: path + ".common_end_time", Tag: "datetime", Message: "must be an RFC 3339 timestamp"}}
	}
	if !start.Before(end) {
		return []validation.Issue{{Path: path + ".common_end_time", Tag: "gtfield", Message: "must be after start time"}}
	}
	return nil
}
