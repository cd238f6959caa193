package models

import "time"

// MaxTemplatesPerAccount bounds the live form templates of one account.
const MaxTemplatesPerAccount = 3

// Template is a persisted, reusable snapshot of a form.
type Template struct {
	ID        string      `json:"id"`
	AccountID string      `json:"account_id"`
	FormName  string      `json:"form_name"`
	Fields    []FormField `json:"fields"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TemplatePatch holds the template properties to change; nil members are left as they are.
type TemplatePatch struct {
	FormName *string     `json:"form_name,omitempty"`
	Fields   []FormField `json:"fields,omitempty"`
}
