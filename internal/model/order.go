package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusCancelled},
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
// Completed and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a client's purchase of one or more products
type Order struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	ClientID  uint            `json:"clientId" gorm:"not null;index"`
	Client    *Client         `json:"client,omitempty"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	Items     []OrderProduct  `json:"items,omitempty"`
	Invoice   *Invoice        `json:"invoice,omitempty"`
	CreatedAt time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OrderProduct is an order line. Price is the product's unit price at the
// moment the line was written and never follows later catalogue changes.
type OrderProduct struct {
	OrderID   uint            `json:"orderId" gorm:"primaryKey"`
	ProductID uint            `json:"productId" gorm:"primaryKey"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LineTotal returns price × quantity
func (op OrderProduct) LineTotal() decimal.Decimal {
	return op.Price.Mul(decimal.NewFromInt(int64(op.Quantity)))
}
