package models

import (
	"time"
)

// Client is the counterpart a document is sent to
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Company   string    `gorm:"size:255" json:"company"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}
