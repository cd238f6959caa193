// Package drafts keeps the live event drafts of this instance and exposes them over HTTP.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/composer"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/persistence"
)

// ErrDraftNotFound is returned for drafts that are neither open nor saved.
var ErrDraftNotFound = errors.New("draft not found")

// Store is the persistence a draft needs plus loading saved drafts.
type Store interface {
	composer.Persistence
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// NotifierFactory returns the notifier for a draft's editors.
type NotifierFactory func(draftID uuid.UUID) notify.Notifier

// Registry holds the open composers by draft id (thread-safe).
type Registry struct {
	mu          sync.RWMutex
	drafts      map[uuid.UUID]*composer.Composer
	store       Store
	notifierFor NotifierFactory
	opts        composer.Options
	logger      *zap.Logger
}

// NewRegistry creates a registry. opts is the template for every composer; AccountID is the default account.
func NewRegistry(store Store, notifierFor NotifierFactory, opts composer.Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		drafts:      make(map[uuid.UUID]*composer.Composer),
		store:       store,
		notifierFor: notifierFor,
		opts:        opts,
		logger:      logger,
	}
}

func (r *Registry) now() time.Time {
	if r.opts.Scheduler != nil {
		return r.opts.Scheduler.Now()
	}
	return time.Now()
}

func (r *Registry) build(ctx context.Context, draft *models.Event) *composer.Composer {
	opts := r.opts
	opts.AccountID = draft.AccountID
	var n notify.Notifier
	if r.notifierFor != nil {
		n = r.notifierFor(draft.ID)
	}
	c := composer.New(draft, r.store, n, opts, r.logger.With(zap.String("draft_id", draft.ID.String())))

	// Lists are a convenience for the editor; a failure leaves them empty.
	if _, err := c.LoadTemplates(ctx); err != nil {
		r.logger.Warn("load templates", zap.String("draft_id", draft.ID.String()), zap.Error(err))
	}
	if _, err := c.LoadPreferredPayments(ctx); err != nil {
		r.logger.Warn("load preferred payments", zap.String("draft_id", draft.ID.String()), zap.Error(err))
	}
	return c
}

// Create starts a new draft for accountID (the default account when empty).
func (r *Registry) Create(ctx context.Context, accountID string) *composer.Composer {
	if accountID == "" {
		accountID = r.opts.AccountID
	}
	draft := &models.Event{
		ID:         uuid.New(),
		AccountID:  accountID,
		Visibility: models.VisibilityPublic,
		CreatedAt:  r.now(),
	}
	c := r.build(ctx, draft)

	r.mu.Lock()
	r.drafts[draft.ID] = c
	r.mu.Unlock()
	r.logger.Info("draft created", zap.String("draft_id", draft.ID.String()), zap.String("account_id", accountID))
	return c
}

// Get returns an open draft.
func (r *Registry) Get(id uuid.UUID) (*composer.Composer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.drafts[id]
	return c, ok
}

// Exists reports whether a draft is open.
func (r *Registry) Exists(id uuid.UUID) bool {
	_, ok := r.Get(id)
	return ok
}

// Open returns an open draft or loads a saved one.
func (r *Registry) Open(ctx context.Context, id uuid.UUID) (*composer.Composer, error) {
	if c, ok := r.Get(id); ok {
		return c, nil
	}
	e, err := r.store.GetEvent(ctx, id.String())
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	c := r.build(ctx, e)

	r.mu.Lock()
	if existing, ok := r.drafts[id]; ok {
		r.mu.Unlock()
		c.Close()
		return existing, nil
	}
	r.drafts[id] = c
	r.mu.Unlock()
	r.logger.Info("draft opened", zap.String("draft_id", id.String()))
	return c, nil
}

// Drop closes a draft. Pending backing-store deletions are cancelled, not committed.
func (r *Registry) Drop(id uuid.UUID) bool {
	r.mu.Lock()
	c, ok := r.drafts[id]
	delete(r.drafts, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	c.Close()
	r.logger.Info("draft closed", zap.String("draft_id", id.String()))
	return true
}

// InvokeAction runs a notification action of an open draft.
func (r *Registry) InvokeAction(id uuid.UUID, actionID string) bool {
	c, ok := r.Get(id)
	if !ok {
		return false
	}
	return c.InvokeAction(actionID)
}

// SetCover sets the cover image of an open draft.
func (r *Registry) SetCover(id uuid.UUID, url string) error {
	c, ok := r.Get(id)
	if !ok {
		return ErrDraftNotFound
	}
	c.SetCoverImage(url)
	return nil
}

// Len returns the number of open drafts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

// CloseAll drops every draft.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.drafts
	r.drafts = make(map[uuid.UUID]*composer.Composer)
	r.mu.Unlock()
	for _, c := range all {
		c.Close()
	}
}
