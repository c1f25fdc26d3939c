// Package validation checks API request bodies with validator/v10 and reports
// failures as domain validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/shelfwise/catalog-server/internal/errors"
)

// maxIdentifier matches the width of the id columns in the catalog tables.
const maxIdentifier = 255

// Validator checks catalog request bodies.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their json tag and knows the
// identifier rule used for publication and user ids.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return validIdentifier(fl.Field().String())
	})
	return &Validator{v: v}
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// validIdentifier accepts ids that can sit in a URL path segment unescaped.
func validIdentifier(s string) bool {
	if strings.TrimSpace(s) == "" || len(s) > maxIdentifier {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// Validate returns nil or a VALIDATION error whose details map each failing
// field to a message.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = message(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

// message covers the rules catalog requests use; anything else is "is invalid".
func message(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "identifier":
		return "must be a non-blank identifier without spaces or slashes"
	case "oneof":
		return "must be one of: " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Map {
			return fmt.Sprintf("must contain %s %s items", bound, p)
		}
		return fmt.Sprintf("must be %s %s characters", bound, p)
	default:
		return "is invalid"
	}
}
