package models

import (
	"time"
)

// Tenant is the owning company scope for templates, clients and documents
type Tenant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	CompanyName  string    `gorm:"size:255" json:"company_name"`
	Email        string    `gorm:"size:255" json:"email"`
	Address      string    `gorm:"size:255" json:"address"`
	TokenTTLDays int       `gorm:"default:0" json:"token_ttl_days"` // 0 = use the global default
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}
