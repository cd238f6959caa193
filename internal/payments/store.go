// Package payments holds the preview step state: the organizer's preferred bank
// accounts and the event's bank transfer and cash settings.
package payments

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
	"github.com/aura-events/composer/pkg/validation"
)

// ErrNotFound is returned for an unknown preferred account id.
var ErrNotFound = errors.New("preferred payment not found")

// BankPatch holds manual edits to the bank transfer setting.
type BankPatch struct {
	BankName    *string `json:"bank_name,omitempty"`
	BranchName  *string `json:"branch_name,omitempty"`
	AccountName *string `json:"account_name,omitempty"`
	Account     *string `json:"account,omitempty"`
}

// Store is the payment slice of a draft.
type Store struct {
	preferred []models.PreferPaymentItem
	bank      models.BankTransfer
	cash      models.CashPayment
}

// NewStore creates a store with the event's current payment settings.
// Empty settings get ids and their fixed types.
func NewStore(bank models.BankTransfer, cash models.CashPayment) *Store {
	if bank.Type == "" {
		bank.Type = models.PaymentTypeATM
	}
	if cash.ID == "" {
		cash.ID = uuid.New().String()
	}
	if cash.Type == "" {
		cash.Type = models.PaymentTypeCash
	}
	return &Store{bank: bank, cash: cash}
}

// SetSettings replaces the bank transfer and cash settings, keeping the preferred accounts.
func (s *Store) SetSettings(bank models.BankTransfer, cash models.CashPayment) {
	s.bank = cloneBank(bank)
	s.cash = cash
	s.cash.Description = cloneStr(cash.Description)
}

// Bank returns the bank transfer setting.
func (s *Store) Bank() models.BankTransfer { return cloneBank(s.bank) }

// Cash returns the cash setting.
func (s *Store) Cash() models.CashPayment {
	c := s.cash
	c.Description = cloneStr(c.Description)
	return c
}

// SetBankEnabled toggles bank transfer.
func (s *Store) SetBankEnabled(on bool) { s.bank.Enable = on }

// SetCashEnabled toggles cash payment.
func (s *Store) SetCashEnabled(on bool) { s.cash.Enable = on }

// UpdateBank applies manual edits. The setting no longer mirrors a preferred account afterwards.
func (s *Store) UpdateBank(p BankPatch) models.BankTransfer {
	if p.BankName != nil {
		s.bank.BankName = *p.BankName
	}
	if p.BranchName != nil {
		s.bank.BranchName = *p.BranchName
	}
	if p.AccountName != nil {
		s.bank.AccountName = *p.AccountName
	}
	if p.Account != nil {
		s.bank.Account = *p.Account
	}
	s.bank.ID = ""
	return s.Bank()
}

// SetBankDescription sets or, with nil, removes the bank transfer note.
func (s *Store) SetBankDescription(d *string) { s.bank.Description = cloneStr(d) }

// SetCashDescription sets or, with nil, removes the cash note.
func (s *Store) SetCashDescription(d *string) { s.cash.Description = cloneStr(d) }

// Preferred returns the preferred accounts in order.
func (s *Store) Preferred() []models.PreferPaymentItem {
	return append([]models.PreferPaymentItem(nil), s.preferred...)
}

// SetPreferred replaces the preferred account list.
func (s *Store) SetPreferred(items []models.PreferPaymentItem) {
	s.preferred = append([]models.PreferPaymentItem(nil), items...)
}

// GetPreferred returns the preferred account with id and its index.
func (s *Store) GetPreferred(id string) (models.PreferPaymentItem, int, bool) {
	i := s.index(id)
	if i < 0 {
		return models.PreferPaymentItem{}, -1, false
	}
	return s.preferred[i], i, true
}

// PutPreferred replaces the account with item's id, or puts item first when it is new.
func (s *Store) PutPreferred(item models.PreferPaymentItem) {
	if i := s.index(item.ID); i >= 0 {
		s.preferred[i] = item
		if s.bank.ID == item.ID {
			s.copyIntoBank(item)
		}
		return
	}
	s.preferred = reorder.Insert(s.preferred, 0, item)
}

// Select fills the bank transfer setting from the preferred account with id.
func (s *Store) Select(id string) (models.BankTransfer, error) {
	i := s.index(id)
	if i < 0 {
		return models.BankTransfer{}, fmt.Errorf("select %s: %w", id, ErrNotFound)
	}
	s.copyIntoBank(s.preferred[i])
	return s.Bank(), nil
}

// SelectedID returns the preferred account the bank setting mirrors, if any.
func (s *Store) SelectedID() string { return s.bank.ID }

// RemovePreferred deletes the account with id. When it was the selected one the
// next account (or else the previous one) becomes selected; with none left the
// bank details are cleared.
func (s *Store) RemovePreferred(id string) (removed models.PreferPaymentItem, index int, wasSelected bool, err error) {
	i := s.index(id)
	if i < 0 {
		return removed, -1, false, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	s.preferred, removed, _ = reorder.Remove(s.preferred, i)
	wasSelected = s.bank.ID == id
	if wasSelected {
		switch {
		case i < len(s.preferred):
			s.copyIntoBank(s.preferred[i])
		case i > 0:
			s.copyIntoBank(s.preferred[i-1])
		default:
			s.bank.ID, s.bank.BankName, s.bank.BranchName, s.bank.AccountName, s.bank.Account = "", "", "", "", ""
		}
	}
	return removed, i, wasSelected, nil
}

// InsertPreferred puts item back at index (clamped).
func (s *Store) InsertPreferred(index int, item models.PreferPaymentItem) {
	s.preferred = reorder.Insert(s.preferred, index, item)
}

// ValidateBank checks the bank transfer details when bank transfer is enabled.
func (s *Store) ValidateBank() []validation.Issue {
	if !s.bank.Enable {
		return nil
	}
	return validation.StructWithPrefix(models.PreferPaymentItem{
		BankName:    s.bank.BankName,
		BranchName:  s.bank.BranchName,
		Account:     s.bank.Account,
		AccountName: s.bank.AccountName,
	}, "bank_transfer")
}

func (s *Store) copyIntoBank(item models.PreferPaymentItem) {
	s.bank.ID = item.ID
	s.bank.BankName = item.BankName
	s.bank.BranchName = item.BranchName
	s.bank.AccountName = item.AccountName
	s.bank.Account = item.Account
}

func (s *Store) index(id string) int {
	return reorder.IndexOf(s.preferred, func(p models.PreferPaymentItem) bool { return p.ID == id })
}

func cloneBank(b models.BankTransfer) models.BankTransfer {
	b.Description = cloneStr(b.Description)
	return b
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
