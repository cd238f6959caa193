package models

// Payment method types.
const (
	PaymentTypeATM  = "ATM"
	PaymentTypeCash = "cash"
)

// PreferPaymentItem is a reusable bank account of an organizer.
type PreferPaymentItem struct {
	ID          string `json:"id"`
	BankName    string `json:"bank_name" validate:"required,max=50"`
	BranchName  string `json:"branch_name" validate:"required,max=50"`
	Account     string `json:"account" validate:"required,numeric,min=7,max=14"`
	AccountName string `json:"account_name" validate:"required,max=50"`
	Type        string `json:"type"`
}

// PreferPaymentPatch holds the account properties to change; nil members are left as they are.
type PreferPaymentPatch struct {
	BankName    *string `json:"bank_name,omitempty"`
	BranchName  *string `json:"branch_name,omitempty"`
	Account     *string `json:"account,omitempty"`
	AccountName *string `json:"account_name,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// Apply returns item with the patch applied.
func (p PreferPaymentPatch) Apply(item PreferPaymentItem) PreferPaymentItem {
	if p.BankName != nil {
		item.BankName = *p.BankName
	}
	if p.BranchName != nil {
		item.BranchName = *p.BranchName
	}
	if p.Account != nil {
		item.Account = *p.Account
	}
	if p.AccountName != nil {
		item.AccountName = *p.AccountName
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	return item
}

// BankTransfer is the ATM transfer payment setting of an event.
// ID references the preferred account it was filled from, if any.
type BankTransfer struct {
	ID          string  `json:"id"`
	Enable      bool    `json:"enable"`
	Type        string  `json:"type"`
	BankName    string  `json:"bank_name"`
	BranchName  string  `json:"branch_name"`
	AccountName string  `json:"account_name"`
	Account     string  `json:"account"`
	Description *string `json:"description,omitempty"`
}

// CashPayment is the on-site cash payment setting of an event.
type CashPayment struct {
	ID          string  `json:"id"`
	Enable      bool    `json:"enable"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
}
