package validator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	v := New()
	assert.NoError(t, v.Validate(payload{Name: "Ana", Email: "ana@example.com"}))
	assert.Error(t, v.Validate(payload{Email: "ana@example.com"}))
	assert.Error(t, v.Validate(payload{Name: "Ana", Email: "not-an-email"}))
}

func TestValidateDecimalBounds(t *testing.T) {
	type payload struct {
		Price *decimal.Decimal `validate:"required,gte=0,lte=100"`
	}

	v := New()
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	assert.NoError(t, v.Validate(payload{Price: price("0")}))
	assert.NoError(t, v.Validate(payload{Price: price("99.99")}))
	assert.Error(t, v.Validate(payload{}))
	assert.Error(t, v.Validate(payload{Price: price("-0.01")}))
	assert.Error(t, v.Validate(payload{Price: price("100.01")}))
}

func TestFirstFailure(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	field, tag, ok := FirstFailure(New().Validate(payload{Name: "Ana", Email: "nope"}))
	require.True(t, ok)
	assert.Equal(t, "Email", field)
	assert.Equal(t, "email", tag)

	_, _, ok = FirstFailure(errors.New("boom"))
	assert.False(t, ok)
	_, _, ok = FirstFailure(nil)
	assert.False(t, ok)
}
