package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/composer/internal/models"
)

func accounts() []models.PreferPaymentItem {
	return []models.PreferPaymentItem{
		{ID: "p1", BankName: "First Bank", BranchName: "Main", Account: "1234567", AccountName: "Aura"},
		{ID: "p2", BankName: "Second Bank", BranchName: "East", Account: "7654321", AccountName: "Aura"},
		{ID: "p3", BankName: "Third Bank", BranchName: "West", Account: "12345678901234", AccountName: "Aura"},
	}
}

func TestNewStore_FillsTypes(t *testing.T) {
	s := NewStore(models.BankTransfer{}, models.CashPayment{})
	assert.Equal(t, models.PaymentTypeATM, s.Bank().Type)
	assert.Equal(t, models.PaymentTypeCash, s.Cash().Type)
	assert.NotEmpty(t, s.Cash().ID)
}

func TestSelect_CopiesAccount(t *testing.T) {
	s := NewStore(models.BankTransfer{}, models.CashPayment{})
	s.SetPreferred(accounts())
	bank, err := s.Select("p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", bank.ID)
	assert.Equal(t, "Second Bank", bank.BankName)
	assert.Equal(t, "7654321", bank.Account)

	_, err = s.Select("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemovePreferred_ReselectsNeighbour(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		remove   string
		want     string
	}{
		{"next account", "p2", "p2", "p3"},
		{"previous when last", "p3", "p3", "p2"},
		{"unselected leaves selection", "p1", "p2", "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(models.BankTransfer{}, models.CashPayment{})
			s.SetPreferred(accounts())
			_, err := s.Select(tt.selected)
			require.NoError(t, err)
			_, _, wasSelected, err := s.RemovePreferred(tt.remove)
			require.NoError(t, err)
			assert.Equal(t, tt.selected == tt.remove, wasSelected)
			assert.Equal(t, tt.want, s.SelectedID())
		})
	}
}

func TestRemovePreferred_LastClearsBank(t *testing.T) {
	s := NewStore(models.BankTransfer{Enable: true}, models.CashPayment{})
	s.SetPreferred(accounts()[:1])
	_, err := s.Select("p1")
	require.NoError(t, err)
	removed, idx, _, err := s.RemovePreferred("p1")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Empty(t, s.Bank().BankName)
	assert.Empty(t, s.SelectedID())

	s.InsertPreferred(idx, removed)
	assert.Equal(t, accounts()[:1], s.Preferred())
}

func TestPutPreferred(t *testing.T) {
	s := NewStore(models.BankTransfer{}, models.CashPayment{})
	s.SetPreferred(accounts())
	_, err := s.Select("p1")
	require.NoError(t, err)

	s.PutPreferred(models.PreferPaymentItem{ID: "new", BankName: "New Bank"})
	assert.Equal(t, "new", s.Preferred()[0].ID)

	edited := accounts()[0]
	edited.BranchName = "Harbour"
	s.PutPreferred(edited)
	assert.Equal(t, "Harbour", s.Bank().BranchName)
}

func TestValidateBank(t *testing.T) {
	s := NewStore(models.BankTransfer{}, models.CashPayment{})
	assert.Empty(t, s.ValidateBank())

	s.SetBankEnabled(true)
	issues := s.ValidateBank()
	assert.Len(t, issues, 4)

	s.SetPreferred(accounts())
	_, err := s.Select("p3")
	require.NoError(t, err)
	assert.Empty(t, s.ValidateBank())

	short := "123456"
	s.UpdateBank(BankPatch{Account: &short})
	issues = s.ValidateBank()
	require.Len(t, issues, 1)
	assert.Equal(t, "bank_transfer.account", issues[0].Path)
	assert.Empty(t, s.SelectedID())
}

func TestDescriptions(t *testing.T) {
	s := NewStore(models.BankTransfer{}, models.CashPayment{})
	note := "Transfer within 3 days"
	s.SetBankDescription(&note)
	s.SetCashDescription(&note)
	note = "changed"
	require.NotNil(t, s.Bank().Description)
	assert.Equal(t, "Transfer within 3 days", *s.Bank().Description)
	s.SetCashDescription(nil)
	assert.Nil(t, s.Cash().Description)
}
