package repository

import (
	"context"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// EventRepository defines the interface for audit event access. Events are
// append-only: there is deliberately no update or delete method.
type EventRepository interface {
	Append(ctx context.Context, event *models.Event) error
	ListByDocument(ctx context.Context, documentID uint) ([]models.Event, error)
	LastByType(ctx context.Context, documentID uint, eventType string) (*models.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) ListByDocument(ctx context.Context, documentID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) LastByType(ctx context.Context, documentID uint, eventType string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND event_type = ?", documentID, eventType).
		Order("created_at DESC, id DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
