package composer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/tickets"
	"github.com/aura-events/composer/internal/undo"
)

// ErrNothingToUndo is returned when no pending deletion matches.
var ErrNothingToUndo = errors.New("nothing to undo")

type sessionDeletion struct {
	Session models.Session
	Links   []tickets.Link
}

type optionDeletion struct {
	FieldID string
	Value   string
}

type preferredDeletion struct {
	Item        models.PreferPaymentItem
	WasSelected bool
}

// offerUndo shows the undo toast of a draft-only deletion. Caller holds mu.
func (c *Composer) offerUndo(message string, fn func() error) {
	act := c.actionLocked("Undo", func() {
		if err := fn(); err != nil && !errors.Is(err, ErrNothingToUndo) {
			c.logger.Warn("undo deletion", zap.Error(err))
		}
	})
	c.notifyLocked(notify.Notification{Message: message, Kind: notify.KindInfo, Action: act})
}

// persistedDeletion runs the grace period protocol for entities with a backing store.
// The local removal happens at once; the backing-store delete runs when the
// grace period ends unless undo cancelled it first.
type persistedDeletion[T any] struct {
	c       *Composer
	noun    string
	tracker *undo.Tracker[T]
	remove  func(id string) (T, int, error)
	restore func(p undo.Pending[T])
	commit  func(ctx context.Context, id string) error
	// purge drops id from the local list after a successful commit, in case
	// something put it back while the commit ran.
	purge func(id string)

	undoActions map[string]string
	inflight    map[string]struct{}
}

func newPersistedDeletion[T any](c *Composer, noun string) *persistedDeletion[T] {
	return &persistedDeletion[T]{
		c:           c,
		noun:        noun,
		tracker:     undo.NewTracker[T](c.sched),
		undoActions: make(map[string]string),
		inflight:    make(map[string]struct{}),
	}
}

// begin removes id locally and schedules its commit. Caller holds mu.
func (d *persistedDeletion[T]) begin(id string) error {
	if d.hidden(id) {
		return undo.ErrDeletionPending
	}
	item, idx, err := d.remove(id)
	if err != nil {
		return err
	}
	grace := d.c.opts.GracePeriod
	if _, err := d.tracker.Begin(id, item, idx, grace, func(seq uint64) { d.expire(id, seq) }); err != nil {
		d.restore(undo.Pending[T]{Key: id, Item: item, OriginalIndex: idx})
		return err
	}
	act := d.c.actionLocked("Undo", func() {
		if err := d.undo(id); err != nil && !errors.Is(err, ErrNothingToUndo) {
			d.c.logger.Warn("undo deletion", zap.String("kind", d.noun), zap.String("id", id), zap.Error(err))
		}
	})
	d.undoActions[id] = act.ID
	d.c.notifyLocked(notify.Notification{
		Message:  d.noun + " deleted",
		Kind:     notify.KindInfo,
		Duration: grace,
		Action:   act,
	})
	return nil
}

// undo puts the item back at its remembered index and cancels the commit. Caller holds mu.
func (d *persistedDeletion[T]) undo(id string) error {
	p, ok := d.tracker.Undo(id)
	if !ok {
		return ErrNothingToUndo
	}
	d.forgetAction(id)
	d.restore(p)
	return nil
}

func (d *persistedDeletion[T]) forgetAction(id string) {
	if aid, ok := d.undoActions[id]; ok {
		d.c.dropAction(aid)
		delete(d.undoActions, id)
	}
}

// expire is the scheduler callback. It claims the record under mu and commits
// outside of it; a failed commit restores the item and offers a retry.
func (d *persistedDeletion[T]) expire(id string, seq uint64) {
	c := d.c
	c.mu.Lock()
	p, ok := d.tracker.Expire(id, seq)
	if !ok {
		c.unlock()
		return
	}
	d.forgetAction(id)
	d.inflight[id] = struct{}{}
	c.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.CommitTimeout)
	err := d.commit(ctx, id)
	cancel()

	c.mu.Lock()
	defer c.unlock()
	delete(d.inflight, id)
	if err == nil {
		if d.purge != nil {
			d.purge(id)
		}
		c.logger.Info("deletion committed", zap.String("kind", d.noun), zap.String("id", id))
		return
	}
	c.logger.Error("commit deletion", zap.String("kind", d.noun), zap.String("id", id), zap.Error(err))
	d.restore(p)
	act := c.actionLocked("Retry", func() {
		if err := d.begin(id); err != nil {
			c.logger.Warn("retry deletion", zap.String("kind", d.noun), zap.String("id", id), zap.Error(err))
		}
	})
	c.notifyLocked(notify.Notification{
		Message:  "Failed to delete " + d.noun + ", it has been restored",
		Kind:     notify.KindError,
		Duration: 2 * notify.DefaultDuration,
		Action:   act,
	})
}

// pending counts deletions that are scheduled or being committed. Caller holds mu.
func (d *persistedDeletion[T]) pending() int {
	return d.tracker.Len() + len(d.inflight)
}

// hidden reports whether id is scheduled for deletion or being committed.
// Reloads must not bring such items back. Caller holds mu.
func (d *persistedDeletion[T]) hidden(id string) bool {
	if _, ok := d.tracker.Get(id); ok {
		return true
	}
	_, ok := d.inflight[id]
	return ok
}

// close cancels every scheduled commit. Caller holds mu.
func (d *persistedDeletion[T]) close() {
	d.tracker.Clear()
	d.undoActions = make(map[string]string)
}

func (c *Composer) newTemplateDeletion() *persistedDeletion[models.Template] {
	d := newPersistedDeletion[models.Template](c, "Template")
	d.remove = c.templates.Remove
	d.restore = func(p undo.Pending[models.Template]) {
		if _, _, ok := c.templates.Get(p.Key); ok {
			return
		}
		c.templates.Insert(p.OriginalIndex, p.Item)
	}
	d.commit = func(ctx context.Context, id string) error {
		return c.store.DeleteTemplate(ctx, id)
	}
	d.purge = func(id string) {
		if _, _, err := c.templates.Remove(id); err == nil {
			c.logger.Warn("template reappeared during deletion", zap.String("id", id))
		}
	}
	return d
}

func (c *Composer) newPreferredDeletion() *persistedDeletion[preferredDeletion] {
	d := newPersistedDeletion[preferredDeletion](c, "Account")
	d.remove = func(id string) (preferredDeletion, int, error) {
		item, idx, selected, err := c.payments.RemovePreferred(id)
		return preferredDeletion{Item: item, WasSelected: selected}, idx, err
	}
	d.restore = func(p undo.Pending[preferredDeletion]) {
		if _, _, ok := c.payments.GetPreferred(p.Key); ok {
			return
		}
		c.payments.InsertPreferred(p.OriginalIndex, p.Item.Item)
		if p.Item.WasSelected {
			if _, err := c.payments.Select(p.Key); err != nil {
				c.logger.Warn("reselect account", zap.String("id", p.Key), zap.Error(err))
			}
		}
	}
	d.commit = func(ctx context.Context, id string) error {
		return c.store.DeletePreferredPayment(ctx, id)
	}
	d.purge = func(id string) {
		if _, _, _, err := c.payments.RemovePreferred(id); err == nil {
			c.logger.Warn("account reappeared during deletion", zap.String("id", id))
		}
	}
	return d
}

// PendingDeletions reports how many backing-store deletions are awaiting undo or commit.
func (c *Composer) PendingDeletions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.templateDel.pending() + c.preferredDel.pending()
}
