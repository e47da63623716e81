package models

import (
	"time"
)

// LineItem is one billable row on an invoice document
type LineItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocumentID  uint      `gorm:"not null;index" json:"document_id"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal;not null;default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal;not null" json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for LineItem
func (LineItem) TableName() string {
	return "line_items"
}

// Amount returns the extended row total
func (li *LineItem) Amount() float64 {
	return RoundCents(li.Quantity * li.UnitPrice)
}
