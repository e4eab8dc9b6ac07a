package model

import "time"

const (
	EmailStatusSuccess = "success"
	EmailStatusError   = "error"
)

// EmailLog records one outbound email attempt sequence
type EmailLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	To        string    `json:"to" gorm:"column:to_address;type:varchar(255);not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(255);not null"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;index"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	Attempts  int       `json:"attempts" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}
