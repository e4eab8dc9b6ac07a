package model

import (
	"time"
)

// Client is a customer that places orders and receives invoices
type Client struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Lastname  string    `json:"lastname" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(50);not null"`
	Orders    []Order   `json:"orders,omitempty"`
	Invoices  []Invoice `json:"invoices,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName returns the name used on invoices and reports
func (c Client) FullName() string {
	if c.Lastname == "" {
		return c.Name
	}
	return c.Name + " " + c.Lastname
}
