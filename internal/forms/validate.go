package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/pkg/validation"
)

// Issue is a form validation error addressed to a single control.
// FieldIndex is -1 for form-level properties; OptionIndex is set for option errors.
type Issue struct {
	FieldIndex  int    `json:"field_index"`
	Property    string `json:"property"`
	OptionIndex *int   `json:"option_index,omitempty"`
	Message     string `json:"message"`
}

// Path returns the dotted path of the control relative to the form, e.g. "fields.0.options.1".
func (i Issue) Path() string {
	if i.FieldIndex < 0 {
		return i.Property
	}
	p := fmt.Sprintf("fields.%d.%s", i.FieldIndex, i.Property)
	if i.OptionIndex != nil {
		p += "." + strconv.Itoa(*i.OptionIndex)
	}
	return p
}

// Validate runs the per-field constraints and the duplicate label/option checks.
// Every member of a duplicate group is reported.
func Validate(form models.FormBlock) []Issue {
	var issues []Issue
	for _, vi := range validation.Struct(form) {
		issues = append(issues, Issue{FieldIndex: -1, Property: vi.Path, Message: vi.Message})
	}
	for i, f := range form.Fields {
		issues = append(issues, validateField(i, f)...)
	}
	issues = append(issues, duplicateLabels(form.Fields)...)
	for i, f := range form.Fields {
		issues = append(issues, duplicateOptions(i, f)...)
	}
	return issues
}

func validateField(index int, f models.FormField) []Issue {
	var issues []Issue
	for _, vi := range validation.Struct(f) {
		prop, opt := splitOption(vi.Path)
		issues = append(issues, Issue{FieldIndex: index, Property: prop, OptionIndex: opt, Message: vi.Message})
	}
	if f.FieldType.HasOptions() && len(f.Options) < MinOptions {
		issues = append(issues, Issue{
			FieldIndex: index,
			Property:   "options",
			Message:    fmt.Sprintf("must have at least %d options", MinOptions),
		})
	}
	return issues
}

func duplicateLabels(fields []models.FormField) []Issue {
	groups := make(map[string][]int)
	for i, f := range fields {
		label := strings.TrimSpace(f.Label)
		if label == "" {
			continue
		}
		groups[label] = append(groups[label], i)
	}
	var issues []Issue
	for i, f := range fields {
		if len(groups[strings.TrimSpace(f.Label)]) > 1 {
			issues = append(issues, Issue{FieldIndex: i, Property: "label", Message: "duplicate label"})
		}
	}
	return issues
}

func duplicateOptions(index int, f models.FormField) []Issue {
	counts := make(map[string]int)
	for _, o := range f.Options {
		if v := strings.TrimSpace(o); v != "" {
			counts[v]++
		}
	}
	var issues []Issue
	for j, o := range f.Options {
		if counts[strings.TrimSpace(o)] > 1 {
			j := j
			issues = append(issues, Issue{FieldIndex: index, Property: "options", OptionIndex: &j, Message: "duplicate option"})
		}
	}
	return issues
}

// splitOption turns "options.3" into ("options", 3).
func splitOption(path string) (string, *int) {
	prop, rest, ok := strings.Cut(path, ".")
	if !ok {
		return path, nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return path, nil
	}
	return prop, &n
}
