package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents the product catalogue
type Product struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
