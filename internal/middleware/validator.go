package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator. Messages use
// the JSON field names a client sent.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failing field in a readable form.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s is required", e.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", e.Field())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", e.Field(), e.Param())
	}
	return fmt.Errorf("%s failed %q validation", e.Field(), e.Tag())
}
