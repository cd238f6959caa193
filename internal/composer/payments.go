package composer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/payments"
	"github.com/aura-events/composer/pkg/validation"
)

// LoadPreferredPayments fetches the account's preferred bank accounts. Accounts
// whose deletion is still pending stay hidden.
func (c *Composer) LoadPreferredPayments(ctx context.Context) ([]models.PreferPaymentItem, error) {
	list, err := c.store.ListPreferredPayments(ctx, c.opts.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list preferred payments: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := list[:0:0]
	for _, p := range list {
		if c.preferredDel.hidden(p.ID) {
			continue
		}
		visible = append(visible, p)
	}
	c.payments.SetPreferred(visible)
	return c.payments.Preferred(), nil
}

// SavePreferredPayment creates (empty id) or updates a preferred account in the
// backing store and mirrors the result locally.
func (c *Composer) SavePreferredPayment(ctx context.Context, id string, patch models.PreferPaymentPatch) (models.PreferPaymentItem, error) {
	c.mu.Lock()
	current, _, exists := c.payments.GetPreferred(id)
	c.mu.Unlock()
	if id != "" && !exists {
		return models.PreferPaymentItem{}, fmt.Errorf("update preferred payment %s: %w", id, payments.ErrNotFound)
	}
	if id == "" {
		id = uuid.New().String()
		current = models.PreferPaymentItem{ID: id, Type: models.PaymentTypeATM}
	}
	if issues := validation.Struct(patch.Apply(current)); len(issues) > 0 {
		return models.PreferPaymentItem{}, &ValidationError{Issues: issues}
	}

	item, err := c.store.UpdatePreferredPayment(ctx, c.opts.AccountID, id, patch)

	c.mu.Lock()
	defer c.unlock()
	if err != nil {
		c.logger.Error("update preferred payment", zap.String("id", id), zap.Error(err))
		c.notifyLocked(notify.Notification{Message: "Failed to save account", Kind: notify.KindError})
		return models.PreferPaymentItem{}, fmt.Errorf("update preferred payment %s: %w", id, err)
	}
	c.payments.PutPreferred(*item)
	c.notifyLocked(notify.Notification{Message: "Account saved", Kind: notify.KindSuccess})
	return *item, nil
}

// SelectPreferredPayment fills the bank transfer setting from a preferred account.
func (c *Composer) SelectPreferredPayment(id string) (models.BankTransfer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payments.Select(id)
}

// DeletePreferredPayment hides an account at once and deletes it from the
// backing store when the grace period ends without undo.
func (c *Composer) DeletePreferredPayment(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.preferredDel.begin(id)
}

// UndoPreferredPaymentDeletion cancels a pending account deletion.
func (c *Composer) UndoPreferredPaymentDeletion(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.preferredDel.undo(id)
}

// PreferredPayments returns the visible preferred accounts.
func (c *Composer) PreferredPayments() []models.PreferPaymentItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payments.Preferred()
}

// SetBankTransferEnabled toggles the bank transfer payment method.
func (c *Composer) SetBankTransferEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments.SetBankEnabled(on)
}

// SetCashEnabled toggles the cash payment method.
func (c *Composer) SetCashEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments.SetCashEnabled(on)
}

// UpdateBankTransfer edits the bank details by hand, detaching them from any preferred account.
func (c *Composer) UpdateBankTransfer(p payments.BankPatch) models.BankTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payments.UpdateBank(p)
}

// SetBankTransferDescription sets or, with nil, removes the bank transfer note.
func (c *Composer) SetBankTransferDescription(d *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments.SetBankDescription(d)
}

// SetCashDescription sets or, with nil, removes the cash payment note.
func (c *Composer) SetCashDescription(d *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments.SetCashDescription(d)
}
