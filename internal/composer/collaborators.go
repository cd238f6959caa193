package composer

import (
	"context"

	"github.com/aura-events/composer/internal/models"
)

// Persistence is the backing store for templates, preferred accounts and saved events.
type Persistence interface {
	ListTemplates(ctx context.Context, accountID string) ([]models.Template, error)
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	CreateTemplate(ctx context.Context, t *models.Template) error
	UpdateTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	ListPreferredPayments(ctx context.Context, accountID string) ([]models.PreferPaymentItem, error)
	// UpdatePreferredPayment creates the account when id is unknown.
	UpdatePreferredPayment(ctx context.Context, accountID, id string, patch models.PreferPaymentPatch) (*models.PreferPaymentItem, error)
	DeletePreferredPayment(ctx context.Context, id string) error

	SaveEvent(ctx context.Context, e *models.Event) error
}
