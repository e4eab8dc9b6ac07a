package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing document issued for exactly one order
type Invoice struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	Number    string          `json:"number" gorm:"type:varchar(32);uniqueIndex;not null"`
	Date      time.Time       `json:"date" gorm:"not null;index"`
	ClientID  uint            `json:"clientId" gorm:"not null;index"`
	Client    *Client         `json:"client,omitempty"`
	OrderID   uint            `json:"orderId" gorm:"not null;uniqueIndex"`
	Order     *Order          `json:"order,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Tax       decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// InvoiceSequence is the per-month invoice counter. Period is YYYYMM and
// LastValue is the highest sequence handed out for it.
type InvoiceSequence struct {
	Period    string `gorm:"primaryKey;type:varchar(6)"`
	LastValue int    `gorm:"not null"`
}
