// Package validation runs struct-tag validation on request bodies and turns
// failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "bgv/pkg/domain-errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns a CodeValidation error naming each failing
// field and tag, e.g. "decision: oneof".
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	fields := ProcessValidationErrors(ves)
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, tag))
	}
	sort.Strings(parts)
	return dErrors.New(dErrors.CodeValidation, "invalid fields: "+strings.Join(parts, ", "))
}

// ProcessValidationErrors maps each failing field to the tag that rejected it.
func ProcessValidationErrors(ves validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ves))
	for _, ve := range ves {
		out[ve.Field()] = ve.Tag()
	}
	return out
}
