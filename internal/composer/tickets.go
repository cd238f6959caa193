package composer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/tickets"
	"github.com/aura-events/composer/internal/undo"
	"github.com/aura-events/composer/pkg/validation"
)

// AddTicket appends a default ticket and opens it in the editor.
func (c *Composer) AddTicket() (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.Add(c.sessions.All(), c.sched.Now())
}

// UpdateTicket applies the plain property changes in p.
func (c *Composer) UpdateTicket(id string, p tickets.Patch) (models.Ticket, error) {
	if p.State != nil && *p.State != models.TicketSelling && *p.State != models.TicketStopped {
		return models.Ticket{}, fmt.Errorf("ticket state %q: %w", *p.State, ErrInvalidValue)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.Update(id, p)
}

// SetTicketOffset changes the offset and re-derives the ticket's per-offset windows.
func (c *Composer) SetTicketOffset(id string, o models.Offset) (models.Ticket, error) {
	if issues := validation.StructWithPrefix(o, "offset"); len(issues) > 0 {
		return models.Ticket{}, &ValidationError{Issues: issues}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.SetOffset(id, o, c.sessions.All())
}

// SetTicketSaleTimeType switches between uniform and per-offset windows.
func (c *Composer) SetTicketSaleTimeType(id string, typ models.SaleTimeType) (models.Ticket, error) {
	if typ != models.SaleTimeUniform && typ != models.SaleTimePerOffset {
		return models.Ticket{}, fmt.Errorf("sale time type %q: %w", typ, ErrInvalidValue)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.SetSaleTimeType(id, typ, c.sessions.All())
}

// SetTicketGlobalTime sets the shared window used in uniform mode.
func (c *Composer) SetTicketGlobalTime(id string, g models.GlobalTime) (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.SetGlobalTime(id, g)
}

// LinkSession adds or removes one session from the ticket's selection.
func (c *Composer) LinkSession(ticketID, sessionID string, linked bool) (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, _, ok := c.sessions.Get(sessionID)
	if !ok {
		return models.Ticket{}, fmt.Errorf("link session %s: %w", sessionID, sessions.ErrNotFound)
	}
	return c.tickets.SetSessionLinked(ticketID, sess, linked)
}

// LinkAllSessions selects every session for the ticket, or clears the selection.
func (c *Composer) LinkAllSessions(ticketID string, linked bool) (models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets.SetAllSessions(ticketID, c.sessions.All(), linked)
}

// MoveTicket reorders the tickets.
func (c *Composer) MoveTicket(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets.Move(from, to)
}

// EditTicket opens the ticket with id in the editor; empty closes it.
func (c *Composer) EditTicket(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" {
		if _, _, ok := c.tickets.Get(id); !ok {
			return fmt.Errorf("edit ticket %s: %w", id, tickets.ErrNotFound)
		}
	}
	c.tickets.SetEditing(id)
	return nil
}

// DeleteTicket removes a ticket and offers undo.
func (c *Composer) DeleteTicket(id string) error {
	c.mu.Lock()
	defer c.unlock()
	if _, ok := c.ticketDel.Get(id); ok {
		return undo.ErrDeletionPending
	}
	t, idx, err := c.tickets.Remove(id)
	if err != nil {
		return err
	}
	if _, err := c.ticketDel.Begin(id, t, idx, 0, nil); err != nil {
		return err
	}
	c.offerUndo("Ticket deleted", func() error { return c.undoTicket(id) })
	return nil
}

// UndoTicketDeletion restores a deleted ticket at its former position.
func (c *Composer) UndoTicketDeletion(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.undoTicket(id)
}

func (c *Composer) undoTicket(id string) error {
	p, ok := c.ticketDel.Undo(id)
	if !ok {
		return ErrNothingToUndo
	}
	if _, _, exists := c.tickets.Get(id); exists {
		return nil
	}
	c.tickets.Insert(p.OriginalIndex, p.Item)
	// Sessions deleted meanwhile must not come back as dangling windows.
	if err := c.tickets.Reconcile(c.sessions.All()); err != nil {
		c.logger.Debug("reconcile sale times", zap.String("ticket_id", id), zap.Error(err))
	}
	return nil
}
