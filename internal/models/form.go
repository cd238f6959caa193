package models

// FieldType is the input kind of a registration form field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldEmail       FieldType = "email"
	FieldNumber      FieldType = "number"
	FieldTel         FieldType = "tel"
	FieldURL         FieldType = "url"
	FieldTextarea    FieldType = "textarea"
	FieldDate        FieldType = "date"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldSelect      FieldType = "select"
	FieldDescription FieldType = "description"
)

// HasOptions reports whether fields of this type carry an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldRadio || t == FieldCheckbox || t == FieldSelect
}

// FormField is one question of the attendee registration form.
type FormField struct {
	ID          string    `json:"id"`
	FieldType   FieldType `json:"field_type" validate:"oneof=text email number tel url textarea date radio checkbox select description"`
	Label       string    `json:"label" validate:"required,max=50"`
	Hint        string    `json:"hint" validate:"max=100"`
	Description string    `json:"description" validate:"max=200"`
	IsRequired  bool      `json:"is_required"`
	NoteContent string    `json:"note_content" validate:"max=500"`
	Options     []string  `json:"options,omitempty" validate:"omitempty,dive,max=50"`
}

// FormBlock is the registration form attached to an event.
type FormBlock struct {
	ID       string      `json:"id"`
	FormName string      `json:"form_name" validate:"required,max=50"`
	Fields   []FormField `json:"fields"`
}

// Clone returns a deep copy of the form.
func (f FormBlock) Clone() FormBlock {
	out := f
	out.Fields = make([]FormField, len(f.Fields))
	for i, field := range f.Fields {
		out.Fields[i] = field.Clone()
	}
	return out
}

// Clone returns a deep copy of the field.
func (f FormField) Clone() FormField {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	return out
}
