package validator

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the default rule set. Decimal fields are
// compared as numbers, so gte/lte tags work on money.
func New() *Validator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{validate: v}
}

// Validate checks the struct tags of i
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// FirstFailure returns the struct field and tag of the first failed rule in
// an error returned by Validate
func FirstFailure(err error) (field, tag string, ok bool) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "", "", false
	}
	return fieldErrs[0].StructField(), fieldErrs[0].Tag(), true
}
