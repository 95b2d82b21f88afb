package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"social-backend/internal/shared/apperr"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct checks the validate tags on s and returns a validation error naming
// the first offending field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return apperr.Validation(describe(ves[0]))
	}
	return apperr.Validation(err.Error())
}

// Text requires s to be non-blank and at most max characters (runes).
func Text(field, s string, max int) error {
	if strings.TrimSpace(s) == "" {
		return apperr.Validation(field + " is required")
	}
	if utf8.RuneCountInString(s) > max {
		return apperr.Validation(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
