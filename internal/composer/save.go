package composer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
)

// Save hands the assembled draft to the backing store. A failure is reported
// through the notifier and the draft stays editable as it is.
func (c *Composer) Save(ctx context.Context) (models.Event, error) {
	c.mu.Lock()
	if issues := c.payments.ValidateBank(); len(issues) > 0 {
		c.focus = issues[0].Path
		c.notifyLocked(notify.Notification{Message: "Please fix the payment settings", Kind: notify.KindError})
		c.unlock()
		return models.Event{}, &ValidationError{Issues: issues}
	}
	e := c.draft()
	c.mu.Unlock()

	err := c.store.SaveEvent(ctx, &e)

	c.mu.Lock()
	defer c.unlock()
	if err != nil {
		c.logger.Error("save event", zap.String("event_id", e.ID.String()), zap.Error(err))
		c.notifyLocked(notify.Notification{Message: "Failed to save event", Kind: notify.KindError})
		return models.Event{}, fmt.Errorf("save event %s: %w", e.ID, err)
	}
	now := c.sched.Now()
	c.event.SavedAt = &now
	e.SavedAt = &now
	c.logger.Info("event saved", zap.String("event_id", e.ID.String()))
	c.notifyLocked(notify.Notification{Message: "Event saved", Kind: notify.KindSuccess})
	return e, nil
}

// Event returns a copy of the assembled draft.
func (c *Composer) Event() models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft()
}
