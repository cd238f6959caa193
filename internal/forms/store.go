// Package forms holds the registration form of a draft, its validation rules
// and the account's saved form templates.
package forms

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
)

// MinOptions is the smallest option list a choice field may have.
const MinOptions = 2

// DefaultFormName names a form created from scratch.
const DefaultFormName = "newForm"

var (
	ErrNoForm           = errors.New("draft has no form")
	ErrFieldNotFound    = errors.New("form field not found")
	ErrOptionNotFound   = errors.New("option not found")
	ErrNotChoiceField   = errors.New("field has no options")
	ErrMinOptions       = fmt.Errorf("a choice field needs at least %d options", MinOptions)
	ErrUnknownFieldType = errors.New("unknown field type")
)

// FieldPatch holds the field properties to change; nil members are left as they are.
type FieldPatch struct {
	FieldType   *models.FieldType `json:"field_type,omitempty"`
	Label       *string           `json:"label,omitempty"`
	Hint        *string           `json:"hint,omitempty"`
	Description *string           `json:"description,omitempty"`
	IsRequired  *bool             `json:"is_required,omitempty"`
	NoteContent *string           `json:"note_content,omitempty"`
}

// Store is the form slice of a draft.
type Store struct {
	form      *models.FormBlock
	editingID string
}

// NewStore creates a store holding form, which may be nil.
func NewStore(form *models.FormBlock) *Store {
	s := &Store{}
	s.Set(form)
	return s
}

// Form returns a copy of the form, or nil when the draft has none.
func (s *Store) Form() *models.FormBlock {
	if s.form == nil {
		return nil
	}
	f := s.form.Clone()
	return &f
}

// Has reports whether the draft has a form.
func (s *Store) Has() bool { return s.form != nil }

// Set replaces the form and returns the previous one.
func (s *Store) Set(form *models.FormBlock) *models.FormBlock {
	prev := s.Form()
	if form == nil {
		s.form = nil
	} else {
		f := form.Clone()
		s.form = &f
	}
	return prev
}

// Create starts an empty form.
func (s *Store) Create() models.FormBlock {
	s.form = &models.FormBlock{ID: uuid.New().String(), FormName: DefaultFormName, Fields: []models.FormField{}}
	return s.form.Clone()
}

// ApplyTemplate replaces the form fields with the template's, keeping the form id.
func (s *Store) ApplyTemplate(t models.Template) (prev *models.FormBlock) {
	prev = s.Form()
	id := uuid.New().String()
	if s.form != nil {
		id = s.form.ID
	}
	f := models.FormBlock{ID: id, FormName: t.FormName, Fields: make([]models.FormField, 0, len(t.Fields))}
	for _, field := range t.Fields {
		c := field.Clone()
		c.ID = uuid.New().String()
		f.Fields = append(f.Fields, c)
	}
	s.form = &f
	s.editingID = ""
	return prev
}

// Rename sets the form name.
func (s *Store) Rename(name string) error {
	if s.form == nil {
		return ErrNoForm
	}
	s.form.FormName = name
	return nil
}

// EditingID returns the field open in the editor.
func (s *Store) EditingID() string { return s.editingID }

// SetEditing opens the field with id in the editor; empty closes it.
func (s *Store) SetEditing(id string) { s.editingID = id }

// Field returns the field with id and its index.
func (s *Store) Field(id string) (models.FormField, int, error) {
	i, err := s.fieldIndex(id)
	if err != nil {
		return models.FormField{}, -1, err
	}
	return s.form.Fields[i].Clone(), i, nil
}

// AddField inserts a preset field of type t right after index after; a negative
// index puts it first and an index past the end appends it.
func (s *Store) AddField(t models.FieldType, after int) (models.FormField, int, error) {
	if s.form == nil {
		return models.FormField{}, -1, ErrNoForm
	}
	f, ok := Preset(t)
	if !ok {
		return models.FormField{}, -1, fmt.Errorf("%w: %s", ErrUnknownFieldType, t)
	}
	at := after + 1
	if at > len(s.form.Fields) {
		at = len(s.form.Fields)
	}
	s.form.Fields = reorder.Insert(s.form.Fields, at, f)
	s.editingID = f.ID
	return f.Clone(), at, nil
}

// UpdateField applies p. Changing to a choice type seeds two options; changing
// away from one clears them.
func (s *Store) UpdateField(id string, p FieldPatch) (models.FormField, error) {
	i, err := s.fieldIndex(id)
	if err != nil {
		return models.FormField{}, err
	}
	f := &s.form.Fields[i]
	if p.FieldType != nil {
		if _, ok := presetLabels[*p.FieldType]; !ok {
			return models.FormField{}, fmt.Errorf("%w: %s", ErrUnknownFieldType, *p.FieldType)
		}
		f.FieldType = *p.FieldType
		if f.FieldType.HasOptions() && len(f.Options) < MinOptions {
			f.Options = presetOptions()
		} else if !f.FieldType.HasOptions() {
			f.Options = nil
		}
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Hint != nil {
		f.Hint = *p.Hint
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.IsRequired != nil {
		f.IsRequired = *p.IsRequired
	}
	if p.NoteContent != nil {
		f.NoteContent = *p.NoteContent
	}
	return f.Clone(), nil
}

// ApplyPreset resets the field to the preset of type t, keeping its id, and returns the field as it was.
func (s *Store) ApplyPreset(id string, t models.FieldType) (prev models.FormField, index int, err error) {
	i, err := s.fieldIndex(id)
	if err != nil {
		return models.FormField{}, -1, err
	}
	f, ok := Preset(t)
	if !ok {
		return models.FormField{}, -1, fmt.Errorf("%w: %s", ErrUnknownFieldType, t)
	}
	prev = s.form.Fields[i].Clone()
	f.ID = id
	s.form.Fields[i] = f
	return prev, i, nil
}

// ReplaceField overwrites the field that has f's id.
func (s *Store) ReplaceField(f models.FormField) error {
	i, err := s.fieldIndex(f.ID)
	if err != nil {
		return err
	}
	s.form.Fields[i] = f.Clone()
	return nil
}

// RemoveField deletes the field with id and returns it with its former index.
func (s *Store) RemoveField(id string) (models.FormField, int, error) {
	i, err := s.fieldIndex(id)
	if err != nil {
		return models.FormField{}, -1, err
	}
	var removed models.FormField
	s.form.Fields, removed, _ = reorder.Remove(s.form.Fields, i)
	if s.editingID == id {
		s.editingID = ""
	}
	return removed, i, nil
}

// InsertField puts f back at index (clamped).
func (s *Store) InsertField(index int, f models.FormField) error {
	if s.form == nil {
		return ErrNoForm
	}
	s.form.Fields = reorder.Insert(s.form.Fields, index, f.Clone())
	return nil
}

// MoveField reorders fields.
func (s *Store) MoveField(from, to int) error {
	if s.form == nil {
		return ErrNoForm
	}
	s.form.Fields = reorder.Move(s.form.Fields, from, to)
	return nil
}

// AddOption appends value to the field's options.
func (s *Store) AddOption(fieldID, value string) (int, error) {
	f, err := s.choiceField(fieldID)
	if err != nil {
		return -1, err
	}
	f.Options = append(f.Options, value)
	return len(f.Options) - 1, nil
}

// UpdateOption sets the option at index.
func (s *Store) UpdateOption(fieldID string, index int, value string) error {
	f, err := s.choiceField(fieldID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(f.Options) {
		return ErrOptionNotFound
	}
	f.Options[index] = value
	return nil
}

// RemoveOption deletes the option at index unless that would leave fewer than MinOptions.
func (s *Store) RemoveOption(fieldID string, index int) (string, error) {
	f, err := s.choiceField(fieldID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(f.Options) {
		return "", ErrOptionNotFound
	}
	if len(f.Options) <= MinOptions {
		return "", ErrMinOptions
	}
	var removed string
	f.Options, removed, _ = reorder.Remove(f.Options, index)
	return removed, nil
}

// InsertOption puts value back at index (clamped).
func (s *Store) InsertOption(fieldID string, index int, value string) error {
	f, err := s.choiceField(fieldID)
	if err != nil {
		return err
	}
	f.Options = reorder.Insert(f.Options, index, value)
	return nil
}

// MoveOption reorders the field's options.
func (s *Store) MoveOption(fieldID string, from, to int) error {
	f, err := s.choiceField(fieldID)
	if err != nil {
		return err
	}
	f.Options = reorder.Move(f.Options, from, to)
	return nil
}

// Validate runs the per-field and whole-collection checks on the current form.
func (s *Store) Validate() []Issue {
	if s.form == nil {
		return nil
	}
	return Validate(*s.form)
}

func (s *Store) fieldIndex(id string) (int, error) {
	if s.form == nil {
		return -1, ErrNoForm
	}
	i := reorder.IndexOf(s.form.Fields, func(f models.FormField) bool { return f.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("field %s: %w", id, ErrFieldNotFound)
	}
	return i, nil
}

func (s *Store) choiceField(id string) (*models.FormField, error) {
	i, err := s.fieldIndex(id)
	if err != nil {
		return nil, err
	}
	f := &s.form.Fields[i]
	if !f.FieldType.HasOptions() {
		return nil, fmt.Errorf("field %s: %w", id, ErrNotChoiceField)
	}
	return f, nil
}
