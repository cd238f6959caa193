package composer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/undo"
)

// CreateForm starts an empty registration form unless the draft already has one.
func (c *Composer) CreateForm() models.FormBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.forms.Form(); f != nil {
		return *f
	}
	return c.forms.Create()
}

// RemoveForm drops the registration form.
func (c *Composer) RemoveForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms.Set(nil)
	c.forms.SetEditing("")
}

// RenameForm sets the form name.
func (c *Composer) RenameForm(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.Rename(name)
}

// AddField inserts a preset field of type t after index after and opens it in the editor.
func (c *Composer) AddField(t models.FieldType, after int) (models.FormField, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, _, err := c.forms.AddField(t, after)
	return f, err
}

// UpdateField applies p to a field.
func (c *Composer) UpdateField(id string, p forms.FieldPatch) (models.FormField, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.UpdateField(id, p)
}

// ApplyFieldPreset resets a field to the preset of type t and offers undo.
func (c *Composer) ApplyFieldPreset(id string, t models.FieldType) (models.FormField, error) {
	c.mu.Lock()
	defer c.unlock()
	prev, _, err := c.forms.ApplyPreset(id, t)
	if err != nil {
		return models.FormField{}, err
	}
	act := c.actionLocked("Undo", func() {
		if err := c.forms.ReplaceField(prev); err != nil {
			c.logger.Debug("undo preset", zap.String("field_id", id), zap.Error(err))
		}
	})
	c.notifyLocked(notify.Notification{Message: "Preset applied", Kind: notify.KindInfo, Action: act})
	f, _, err := c.forms.Field(id)
	return f, err
}

// MoveField reorders the form fields.
func (c *Composer) MoveField(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.MoveField(from, to)
}

// EditField opens the field with id in the editor; empty closes it.
func (c *Composer) EditField(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" {
		if _, _, err := c.forms.Field(id); err != nil {
			return err
		}
	}
	c.forms.SetEditing(id)
	return nil
}

// DeleteField removes a field and offers undo.
func (c *Composer) DeleteField(id string) error {
	c.mu.Lock()
	defer c.unlock()
	if _, ok := c.fieldDel.Get(id); ok {
		return undo.ErrDeletionPending
	}
	f, idx, err := c.forms.RemoveField(id)
	if err != nil {
		return err
	}
	if _, err := c.fieldDel.Begin(id, f, idx, 0, nil); err != nil {
		return err
	}
	c.offerUndo("Field deleted", func() error { return c.undoField(id) })
	return nil
}

// UndoFieldDeletion restores a deleted field at its former position.
func (c *Composer) UndoFieldDeletion(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.undoField(id)
}

func (c *Composer) undoField(id string) error {
	p, ok := c.fieldDel.Undo(id)
	if !ok {
		return ErrNothingToUndo
	}
	if _, _, err := c.forms.Field(id); err == nil {
		return nil
	}
	return c.forms.InsertField(p.OriginalIndex, p.Item)
}

// AddOption appends an option to a choice field and returns its index.
func (c *Composer) AddOption(fieldID, value string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.AddOption(fieldID, value)
}

// UpdateOption sets the option at index.
func (c *Composer) UpdateOption(fieldID string, index int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.UpdateOption(fieldID, index, value)
}

// MoveOption reorders the options of a choice field.
func (c *Composer) MoveOption(fieldID string, from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.MoveOption(fieldID, from, to)
}

// DeleteOption removes the option at index and offers undo. The returned key
// identifies the deletion for UndoOptionDeletion. A choice field never drops
// below two options; such a request is refused with a warning.
func (c *Composer) DeleteOption(fieldID string, index int) (string, error) {
	c.mu.Lock()
	defer c.unlock()
	value, err := c.forms.RemoveOption(fieldID, index)
	if errors.Is(err, forms.ErrMinOptions) {
		c.notifyLocked(notify.Notification{
			Message: fmt.Sprintf("A choice field needs at least %d options", forms.MinOptions),
			Kind:    notify.KindWarning,
		})
		return "", err
	}
	if err != nil {
		return "", err
	}
	key := uuid.New().String()
	if _, err := c.optionDel.Begin(key, optionDeletion{FieldID: fieldID, Value: value}, index, 0, nil); err != nil {
		return "", err
	}
	c.offerUndo("Option deleted", func() error { return c.undoOption(key) })
	return key, nil
}

// UndoOptionDeletion restores a deleted option at its former position.
func (c *Composer) UndoOptionDeletion(key string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.undoOption(key)
}

func (c *Composer) undoOption(key string) error {
	p, ok := c.optionDel.Undo(key)
	if !ok {
		return ErrNothingToUndo
	}
	return c.forms.InsertOption(p.Item.FieldID, p.OriginalIndex, p.Item.Value)
}

// FormIssues validates the form.
func (c *Composer) FormIssues() []forms.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forms.Validate()
}
