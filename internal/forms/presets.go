package forms

import (
	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
)

var presetLabels = map[models.FieldType]string{
	models.FieldText:        "Short answer",
	models.FieldEmail:       "Email",
	models.FieldNumber:      "Number",
	models.FieldTel:         "Phone",
	models.FieldURL:         "Website",
	models.FieldTextarea:    "Long answer",
	models.FieldDate:        "Date",
	models.FieldRadio:       "Single choice",
	models.FieldCheckbox:    "Multiple choice",
	models.FieldSelect:      "Dropdown",
	models.FieldDescription: "Note",
}

// Preset returns a new field of type t with a fresh id.
func Preset(t models.FieldType) (models.FormField, bool) {
	label, ok := presetLabels[t]
	if !ok {
		return models.FormField{}, false
	}
	f := models.FormField{
		ID:        uuid.New().String(),
		FieldType: t,
		Label:     label,
	}
	if t.HasOptions() {
		f.Options = presetOptions()
	}
	if t == models.FieldDescription {
		f.NoteContent = "Additional information for attendees."
	}
	return f, true
}

func presetOptions() []string {
	return []string{"Option 1", "Option 2"}
}
