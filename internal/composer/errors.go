package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aura-events/composer/pkg/validation"
)

var (
	// ErrNotFound is returned for unknown ids of draft entities.
	ErrNotFound = errors.New("not found")
	// ErrDerivedField is returned when writing a value that only the sale-window calculator may write.
	ErrDerivedField = errors.New("field is derived and cannot be set")
	// ErrInvalidPath is returned by the binding for paths that do not resolve.
	ErrInvalidPath = errors.New("invalid path")
	// ErrReadOnlyField is returned when writing an identity or bookkeeping field of the draft.
	ErrReadOnlyField = errors.New("field is read-only")
	// ErrInvalidValue is returned for enum values outside their set.
	ErrInvalidValue = errors.New("invalid value")
)

// ValidationError carries the issues that rejected an operation.
type ValidationError struct {
	Issues []validation.Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s %s", is.Path, is.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
