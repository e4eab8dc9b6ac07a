package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCompleted.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusPending, true},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatus("shipped"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLineTotal(t *testing.T) {
	line := OrderProduct{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	assert.True(t, decimal.RequireFromString("59.97").Equal(line.LineTotal()))
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(Product{Name: "Mouse", Price: decimal.RequireFromString("12.5")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":12.5`)
}

func TestUserPasswordNotSerialised(t *testing.T) {
	b, err := json.Marshal(User{Email: "a@b.co", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash")
}

func TestClientFullName(t *testing.T) {
	assert.Equal(t, "Ana Pérez", Client{Name: "Ana", Lastname: "Pérez"}.FullName())
	assert.Equal(t, "Ana", Client{Name: "Ana"}.FullName())
}
