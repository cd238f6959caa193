package composer

import (
	"sort"
	"time"

	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/wizard"
)

// PendingDeletion is a backing-store deletion still waiting for its grace period.
type PendingDeletion struct {
	Kind     string    `json:"kind"`
	ID       string    `json:"id"`
	CommitAt time.Time `json:"commit_at"`
}

// Flags are the derived validity flags of the state slices.
type Flags struct {
	HasSession      bool `json:"has_session"`
	SessionHasError bool `json:"session_has_error"`
	HasTicket       bool `json:"has_ticket"`
	TicketHasError  bool `json:"ticket_has_error"`
	AllStopped      bool `json:"all_tickets_stopped"`
	HasForm         bool `json:"has_form"`
	FormHasError    bool `json:"form_has_error"`
	BankHasError    bool `json:"bank_has_error"`
}

// Snapshot is a consistent read of the whole editor state.
type Snapshot struct {
	Event             models.Event               `json:"event"`
	Step              wizard.Step                `json:"step"`
	EditingSessionID  string                     `json:"editing_session_id,omitempty"`
	EditingTicketID   string                     `json:"editing_ticket_id,omitempty"`
	EditingFieldID    string                     `json:"editing_field_id,omitempty"`
	Focus             string                     `json:"focus,omitempty"`
	Templates         []models.Template          `json:"templates"`
	PreferredPayments []models.PreferPaymentItem `json:"preferred_payments"`
	FormIssues        []forms.Issue              `json:"form_issues,omitempty"`
	PendingDeletions  []PendingDeletion          `json:"pending_deletions,omitempty"`
	Flags             Flags                      `json:"flags"`
}

// Snapshot returns the current editor state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Event:             c.draft(),
		Step:              c.wizard.Step(),
		EditingSessionID:  c.sessions.EditingID(),
		EditingTicketID:   c.tickets.EditingID(),
		EditingFieldID:    c.forms.EditingID(),
		Focus:             c.focus,
		Templates:         c.templates.All(),
		PreferredPayments: c.payments.Preferred(),
		FormIssues:        c.forms.Validate(),
		Flags:             c.flags(),
	}
	for _, p := range c.templateDel.tracker.Records() {
		s.PendingDeletions = append(s.PendingDeletions, PendingDeletion{Kind: "template", ID: p.Key, CommitAt: p.CommitAt})
	}
	for _, p := range c.preferredDel.tracker.Records() {
		s.PendingDeletions = append(s.PendingDeletions, PendingDeletion{Kind: "preferred_payment", ID: p.Key, CommitAt: p.CommitAt})
	}
	sort.Slice(s.PendingDeletions, func(i, j int) bool {
		return s.PendingDeletions[i].CommitAt.Before(s.PendingDeletions[j].CommitAt)
	})
	return s
}

// flags computes the validity flags. Caller holds mu.
func (c *Composer) flags() Flags {
	sessions := c.sessions.All()
	f := Flags{
		HasSession:      c.sessions.HasSession(),
		SessionHasError: c.sessions.HasError(),
		HasTicket:       c.tickets.HasTicket(),
		TicketHasError:  c.tickets.HasError(sessions),
		AllStopped:      c.tickets.AllStopped(),
		HasForm:         c.forms.Has(),
	}
	if f.HasForm {
		f.FormHasError = len(c.forms.Validate()) > 0
	}
	f.BankHasError = len(c.payments.ValidateBank()) > 0
	return f
}

// Flags returns the derived validity flags.
func (c *Composer) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags()
}
