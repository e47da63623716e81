package repository

import (
	"context"
	"errors"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicatePayment is returned when a gateway transaction id has already
// been recorded for the document (webhook redelivery).
var ErrDuplicatePayment = errors.New("gateway transaction already recorded")

// PaymentRepository defines the interface for reconciled payment access
type PaymentRepository interface {
	Record(ctx context.Context, payment *models.Payment) error
	Exists(ctx context.Context, documentID uint, gatewayTxnID string) (bool, error)
	SumSucceeded(ctx context.Context, documentID uint) (float64, error)
	ListByDocument(ctx context.Context, documentID uint) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Record inserts a payment row. The unique (document_id, gateway_txn_id)
// index turns duplicate webhook deliveries into ErrDuplicatePayment.
func (r *paymentRepository) Record(ctx context.Context, payment *models.Payment) error {
	err := r.db.WithContext(ctx).Create(payment).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePayment
	}
	return err
}

func (r *paymentRepository) Exists(ctx context.Context, documentID uint, gatewayTxnID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("document_id = ? AND gateway_transaction_id = ?", documentID, gatewayTxnID).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentRepository) SumSucceeded(ctx context.Context, documentID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("document_id = ? AND status = ?", documentID, models.PaymentSucceeded).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) ListByDocument(ctx context.Context, documentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
