package models

import (
	"encoding/json"
	"time"
)

// Actor type constants
const (
	ActorOperator    = "operator"
	ActorCounterpart = "counterpart"
	ActorSystem      = "system"
)

// Event type constants. One per lifecycle transition plus supplementary
// records (repeat views, failed payments, exhausted jobs).
const (
	EventCreated          = "created"
	EventSent             = "sent"
	EventViewed           = "viewed"
	EventSigned           = "signed"
	EventDeclined         = "declined"
	EventExpired          = "expired"
	EventCancelled        = "cancelled"
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
	EventOverdue          = "overdue"
	EventTokenReissued    = "token_reissued"
	EventJobFailed        = "job_failed"
)

// Event is an append-only audit record owned by a document. Rows are never
// updated or deleted; ordering per document is creation order.
type Event struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	DocumentID uint            `gorm:"not null;index" json:"document_id"`
	EventType  string          `gorm:"size:50;not null" json:"event_type"`
	FromStatus string          `gorm:"size:20" json:"from_status"`
	ToStatus   string          `gorm:"size:20" json:"to_status"`
	Payload    json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`
	ActorType  string          `gorm:"size:20;not null" json:"actor_type"`
	ActorID    *uint           `json:"actor_id,omitempty"`
	IPAddress  string          `gorm:"size:45" json:"ip_address"`
	UserAgent  string          `gorm:"size:255" json:"user_agent"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Event
func (Event) TableName() string {
	return "events"
}
