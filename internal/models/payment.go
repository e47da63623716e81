package models

import (
	"time"
)

// Payment status constants (gateway result states)
const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment records one reconciled gateway result for an invoice. The unique
// (document_id, gateway_transaction_id) index doubles as the dedup set for
// at-least-once webhook delivery: a replayed event inserts nothing and
// applies no transition.
type Payment struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	DocumentID           uint      `gorm:"not null;uniqueIndex:idx_payments_document_txn" json:"document_id"`
	GatewayTransactionID string    `gorm:"size:255;not null;uniqueIndex:idx_payments_document_txn" json:"gateway_transaction_id"`
	Amount               float64   `gorm:"type:decimal;not null" json:"amount"`
	Status               string    `gorm:"size:20;not null" json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
