package realtime

import (
	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/notify"
)

// DraftNotifier pushes composer notifications to the editors of one draft.
type DraftNotifier struct {
	hub     *Hub
	draftID uuid.UUID
}

// NewDraftNotifier returns a notifier bound to draftID.
func NewDraftNotifier(hub *Hub, draftID uuid.UUID) *DraftNotifier {
	return &DraftNotifier{hub: hub, draftID: draftID}
}

// Notify publishes n as a "notification" event.
func (d *DraftNotifier) Notify(n notify.Notification) {
	d.hub.Publish(d.draftID, EventNotification, n)
}
