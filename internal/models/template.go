package models

import (
	"time"
)

// Template is a reusable, operator-authored document blueprint. Templates are
// never mutated by the documents cloned from them.
type Template struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	TenantID      uint         `gorm:"not null;index" json:"tenant_id"`
	Name          string       `gorm:"size:255;not null" json:"name"`
	DocType       DocumentType `gorm:"size:20;not null;default:contract" json:"doc_type"`
	ClickwrapText string       `gorm:"type:text" json:"clickwrap_text"`
	Active        bool         `gorm:"default:true;index" json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	DeletedAt     *time.Time   `gorm:"index" json:"deleted_at,omitempty"`

	// Associations
	Sections []Section `gorm:"foreignKey:TemplateID" json:"sections,omitempty"`
}

// TableName specifies the table name for Template
func (Template) TableName() string {
	return "templates"
}
