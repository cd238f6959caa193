package forms

import (
	"errors"
	"fmt"
	"time"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateLimit    = fmt.Errorf("at most %d templates per account", models.MaxTemplatesPerAccount)
)

// Templates is the list of the account's saved templates as shown in the editor.
type Templates struct {
	items []models.Template
}

// Set replaces the list.
func (t *Templates) Set(items []models.Template) {
	t.items = append([]models.Template(nil), items...)
}

// All returns the templates in order.
func (t *Templates) All() []models.Template {
	return append([]models.Template(nil), t.items...)
}

// Len returns the number of visible templates.
func (t *Templates) Len() int { return len(t.items) }

// Get returns the template with id and its index.
func (t *Templates) Get(id string) (models.Template, int, bool) {
	i := t.index(id)
	if i < 0 {
		return models.Template{}, -1, false
	}
	return t.items[i], i, true
}

// Append adds a template at the end.
func (t *Templates) Append(tpl models.Template) {
	t.items = append(t.items, tpl)
}

// Replace overwrites the template that has tpl's id.
func (t *Templates) Replace(tpl models.Template) {
	if i := t.index(tpl.ID); i >= 0 {
		t.items[i] = tpl
	}
}

// Remove deletes the template with id and returns it with its former index.
func (t *Templates) Remove(id string) (models.Template, int, error) {
	i := t.index(id)
	if i < 0 {
		return models.Template{}, -1, fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
	}
	var removed models.Template
	t.items, removed, _ = reorder.Remove(t.items, i)
	return removed, i, nil
}

// Insert puts tpl back at index (clamped).
func (t *Templates) Insert(index int, tpl models.Template) {
	t.items = reorder.Insert(t.items, index, tpl)
}

func (t *Templates) index(id string) int {
	return reorder.IndexOf(t.items, func(v models.Template) bool { return v.ID == id })
}

// TemplateFromForm snapshots f as a new template of accountID.
func TemplateFromForm(accountID string, f models.FormBlock, now time.Time) models.Template {
	c := f.Clone()
	return models.Template{
		AccountID: accountID,
		FormName:  c.FormName,
		Fields:    c.Fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
