package composer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/undo"
)

// AddSession appends a session with the configured defaults and opens it in the editor.
func (c *Composer) AddSession() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Add(c.sched.Now(), c.opts.SessionDefaults)
}

// UpdateSession applies p. Changed times re-derive the per-offset windows of linked tickets.
func (c *Composer) UpdateSession(id string, p sessions.Patch) (models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, changed, err := c.sessions.Update(id, p)
	if err != nil {
		return models.Session{}, err
	}
	if changed {
		// Times that do not parse yet are reported by validation; the windows
		// catch up on the next valid edit or at ticket step exit.
		if err := c.tickets.SessionChanged(sess); err != nil {
			c.logger.Debug("rederive sale times", zap.String("session_id", id), zap.Error(err))
		}
	}
	return sess, nil
}

// MoveSession reorders the sessions.
func (c *Composer) MoveSession(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions.Move(from, to)
}

// EditSession opens the session with id in the editor; empty closes it.
func (c *Composer) EditSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" {
		if _, _, ok := c.sessions.Get(id); !ok {
			return fmt.Errorf("edit session %s: %w", id, sessions.ErrNotFound)
		}
	}
	c.sessions.SetEditing(id)
	return nil
}

// DeleteSession removes a session together with every ticket sale window that
// references it, and offers undo.
func (c *Composer) DeleteSession(id string) error {
	c.mu.Lock()
	defer c.unlock()
	if _, ok := c.sessionDel.Get(id); ok {
		return undo.ErrDeletionPending
	}
	sess, idx, err := c.sessions.Remove(id)
	if err != nil {
		return err
	}
	links := c.tickets.SessionRemoved(id)
	if _, err := c.sessionDel.Begin(id, sessionDeletion{Session: sess, Links: links}, idx, 0, nil); err != nil {
		return err
	}
	if c.sessions.EditingID() == id {
		c.sessions.SetEditing("")
	}
	c.offerUndo("Session deleted", func() error { return c.undoSession(id) })
	return nil
}

// UndoSessionDeletion restores a deleted session at its former position and
// relinks the tickets that sold it.
func (c *Composer) UndoSessionDeletion(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.undoSession(id)
}

func (c *Composer) undoSession(id string) error {
	p, ok := c.sessionDel.Undo(id)
	if !ok {
		return ErrNothingToUndo
	}
	if _, _, exists := c.sessions.Get(id); exists {
		return nil
	}
	c.sessions.Insert(p.OriginalIndex, p.Item.Session)
	if err := c.tickets.RestoreLinks(p.Item.Session, p.Item.Links); err != nil {
		c.logger.Debug("restore sale times", zap.String("session_id", id), zap.Error(err))
	}
	return nil
}
