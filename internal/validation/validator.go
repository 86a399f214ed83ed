// Package validation checks request shapes before any store is touched.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "dompet/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("card_number", func(fl validator.FieldLevel) bool {
		return IsCardNumber(fl.Field().String())
	})
	return v
}

// Validator collects field errors.
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first error reported for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Struct runs the struct tag rules of s.
func (v *Validator) Struct(s interface{}) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.AddError("request", err.Error())
		return
	}
	for _, fe := range errs {
		v.AddError(fe.Field(), message(fe))
	}
}

// MinAmount checks a positive amount against a configured floor.
func (v *Validator) MinAmount(field string, amount, min int64) {
	if min < 1 {
		min = 1
	}
	v.Check(amount >= min, field, fmt.Sprintf("must be at least %d", min))
}

// Err returns a validation error carrying every field error, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperrors.Validation("invalid request", v.Errors)
}

// IsCardNumber accepts 12 to 19 ASCII digits.
func IsCardNumber(s string) bool {
	if len(s) < 12 || len(s) > 19 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "card_number":
		return "must be 12 to 19 digits"
	case "nefield":
		return "must differ from " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
