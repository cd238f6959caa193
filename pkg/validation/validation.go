package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is the shared struct validator. Field names resolve to their json tags.
var Validator = newValidator()

var indexRe = regexp.MustCompile(`\[(\d+)\]`)

// Issue is one failed constraint addressed by a dotted json path, e.g. "fields.0.label".
type Issue struct {
	Path    string `json:"path"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s and returns its issues with paths relative to s.
func Struct(s interface{}) []Issue {
	return StructWithPrefix(s, "")
}

// StructWithPrefix validates s and prefixes each issue path with prefix.
func StructWithPrefix(s interface{}, prefix string) []Issue {
	err := Validator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Path: prefix, Tag: "invalid", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, e := range verrs {
		path := toPath(e.Namespace())
		if prefix != "" {
			path = prefix + "." + path
		}
		issues = append(issues, Issue{Path: path, Tag: e.Tag(), Message: message(e)})
	}
	return issues
}

// toPath drops the root type name and rewrites slice indexes: "FormField.options[1]" -> "options.1".
func toPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexRe.ReplaceAllString(namespace, ".$1")
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "numeric":
		return "must contain digits only"
	case "datetime":
		return fmt.Sprintf("must match %s", e.Param())
	default:
		return fmt.Sprintf("failed %s", e.Tag())
	}
}

// HasPrefix reports whether any issue lives at or below path.
func HasPrefix(issues []Issue, path string) bool {
	for _, is := range issues {
		if is.Path == path || strings.HasPrefix(is.Path, path+".") {
			return true
		}
	}
	return false
}
