package models

import (
	"math"
	"time"
)

// DocumentType distinguishes the two lifecycle machines
type DocumentType string

// Document type constants
const (
	DocTypeContract DocumentType = "contract"
	DocTypeInvoice  DocumentType = "invoice"
)

// Document status constants. Contracts use draft/sent/viewed/signed/declined/
// expired/cancelled; invoices use draft/sent/viewed/partially_paid/paid/
// overdue/cancelled.
const (
	StatusDraft         = "draft"
	StatusSent          = "sent"
	StatusViewed        = "viewed"
	StatusSigned        = "signed"
	StatusDeclined      = "declined"
	StatusExpired       = "expired"
	StatusCancelled     = "cancelled"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusOverdue       = "overdue"
)

// Document is a Contract or Invoice instance cloned from a Template. Its
// sections/line items are owned exclusively by the document; editing them
// never touches the template.
type Document struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	TenantID   uint         `gorm:"not null;index" json:"tenant_id"`
	TemplateID *uint        `gorm:"index" json:"template_id,omitempty"`
	ClientID   uint         `gorm:"not null;index" json:"client_id"`
	Type       DocumentType `gorm:"size:20;not null;index" json:"type"`
	Title      string       `gorm:"size:255;not null" json:"title"`
	Status     string       `gorm:"size:20;default:draft;index" json:"status"`

	// Contract fields
	ClickwrapText string  `gorm:"type:text" json:"clickwrap_text"`
	SignerName    *string `gorm:"size:255" json:"signer_name,omitempty"`

	// Invoice fields
	TaxRate      float64    `gorm:"type:decimal;default:0" json:"tax_rate"`
	DiscountRate float64    `gorm:"type:decimal;default:0" json:"discount_rate"`
	Subtotal     float64    `gorm:"type:decimal;default:0" json:"subtotal"`
	Total        float64    `gorm:"type:decimal;default:0" json:"total"`
	AmountPaid   float64    `gorm:"type:decimal;default:0" json:"amount_paid"`
	AmountDue    float64    `gorm:"type:decimal;default:0" json:"amount_due"`
	DueDate      *time.Time `gorm:"index" json:"due_date,omitempty"`

	// Public access token. Only the SHA-256 digest of the opaque token is
	// stored; TokenEpoch increments on every resend so stale links die.
	TokenDigest    *string    `gorm:"size:64;uniqueIndex" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	TokenEpoch     int        `gorm:"default:0" json:"-"`
	ViewedEpoch    int        `gorm:"default:0" json:"-"`

	// Rendered artifact
	ArtifactPath *string `gorm:"size:512" json:"artifact_path,omitempty"`

	// Optimistic concurrency guard: transitions are the only status mutation
	// point and bump this under a WHERE lock_version check.
	LockVersion int `gorm:"default:0" json:"-"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	DeclinedAt  *time.Time `json:"declined_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Client    Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Tenant    Tenant     `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Sections  []Section  `gorm:"foreignKey:DocumentID" json:"sections,omitempty"`
	LineItems []LineItem `gorm:"foreignKey:DocumentID" json:"line_items,omitempty"`
	Events    []Event    `gorm:"foreignKey:DocumentID" json:"events,omitempty"`
	Payments  []Payment  `gorm:"foreignKey:DocumentID" json:"payments,omitempty"`
}

// TableName specifies the table name for Document
func (Document) TableName() string {
	return "documents"
}

// IsTerminal reports whether the current status admits no further transitions
func (d *Document) IsTerminal() bool {
	switch d.Status {
	case StatusSigned, StatusDeclined, StatusExpired, StatusCancelled, StatusPaid:
		return true
	}
	return false
}

// MaySend returns true if the document can transition to sent
func (d *Document) MaySend() bool {
	return d.Status == StatusDraft
}

// MayView returns true if a counterpart view can fire the viewed transition
func (d *Document) MayView() bool {
	return d.Status == StatusSent
}

// MaySign returns true if the contract can be signed
func (d *Document) MaySign() bool {
	return d.Type == DocTypeContract && d.Status == StatusViewed
}

// MayDecline returns true if the contract can be declined
func (d *Document) MayDecline() bool {
	return d.Type == DocTypeContract && (d.Status == StatusSent || d.Status == StatusViewed)
}

// MayCancel returns true if the document can be cancelled (operator only)
func (d *Document) MayCancel() bool {
	return !d.IsTerminal()
}

// MayExpire returns true if the time-based expired transition applies
func (d *Document) MayExpire() bool {
	return d.Type == DocTypeContract && (d.Status == StatusSent || d.Status == StatusViewed)
}

// MayApplyPayment returns true if a gateway result can move invoice state.
// Full payments are accepted from any non-cancelled, not-yet-paid status.
func (d *Document) MayApplyPayment() bool {
	if d.Type != DocTypeInvoice {
		return false
	}
	return d.Status != StatusCancelled && d.Status != StatusPaid && d.Status != StatusDraft
}

// MayMarkOverdue returns true if the system overdue transition applies
func (d *Document) MayMarkOverdue() bool {
	if d.Type != DocTypeInvoice {
		return false
	}
	switch d.Status {
	case StatusSent, StatusViewed, StatusPartiallyPaid:
		return true
	}
	return false
}

// TokenExpired reports whether the current token has passed its expiry
func (d *Document) TokenExpired(now time.Time) bool {
	return d.TokenExpiresAt != nil && now.After(*d.TokenExpiresAt)
}

// RecalculateTotals recomputes subtotal, total and amount due from the line
// items and the current amount paid
func (d *Document) RecalculateTotals() {
	var subtotal float64
	for i := range d.LineItems {
		subtotal += d.LineItems[i].Quantity * d.LineItems[i].UnitPrice
	}
	d.Subtotal = RoundCents(subtotal)
	discounted := subtotal * (1 - d.DiscountRate/100)
	d.Total = RoundCents(discounted * (1 + d.TaxRate/100))
	d.AmountDue = RoundCents(d.Total - d.AmountPaid)
	if d.AmountDue < 0 {
		d.AmountDue = 0
	}
}

// RoundCents rounds a monetary amount to two decimal places
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DocumentResponse is the JSON response format for documents
type DocumentResponse struct {
	ID             uint         `json:"id"`
	TenantID       uint         `json:"tenant_id"`
	TemplateID     *uint        `json:"template_id,omitempty"`
	Type           DocumentType `json:"type"`
	Title          string       `json:"title"`
	Status         string       `json:"status"`
	ClientID       uint         `json:"client_id"`
	ClientName     string       `json:"client_name"`
	ClientEmail    string       `json:"client_email"`
	ClickwrapText  string       `json:"clickwrap_text,omitempty"`
	SignerName     *string      `json:"signer_name,omitempty"`
	Subtotal       float64      `json:"subtotal"`
	TaxRate        float64      `json:"tax_rate"`
	DiscountRate   float64      `json:"discount_rate"`
	Total          float64      `json:"total"`
	AmountPaid     float64      `json:"amount_paid"`
	AmountDue      float64      `json:"amount_due"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	TokenExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
	ArtifactPath   *string      `json:"artifact_path,omitempty"`
	Sections       []Section    `json:"sections,omitempty"`
	LineItems      []LineItem   `json:"line_items,omitempty"`
	SentAt         *time.Time   `json:"sent_at,omitempty"`
	ViewedAt       *time.Time   `json:"viewed_at,omitempty"`
	SignedAt       *time.Time   `json:"signed_at,omitempty"`
	PaidAt         *time.Time   `json:"paid_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ToResponse converts Document to DocumentResponse
func (d *Document) ToResponse() DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		TenantID:       d.TenantID,
		TemplateID:     d.TemplateID,
		Type:           d.Type,
		Title:          d.Title,
		Status:         d.Status,
		ClientID:       d.ClientID,
		ClientName:     d.Client.FullName,
		ClientEmail:    d.Client.Email,
		ClickwrapText:  d.ClickwrapText,
		SignerName:     d.SignerName,
		Subtotal:       d.Subtotal,
		TaxRate:        d.TaxRate,
		DiscountRate:   d.DiscountRate,
		Total:          d.Total,
		AmountPaid:     d.AmountPaid,
		AmountDue:      d.AmountDue,
		DueDate:        d.DueDate,
		TokenExpiresAt: d.TokenExpiresAt,
		ArtifactPath:   d.ArtifactPath,
		Sections:       d.Sections,
		LineItems:      d.LineItems,
		SentAt:         d.SentAt,
		ViewedAt:       d.ViewedAt,
		SignedAt:       d.SignedAt,
		PaidAt:         d.PaidAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
