package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/draftsign/draftsign-api/internal/metrics"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/statemachine"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

// GatewayEvent is one payment result delivered by the gateway webhook
type GatewayEvent struct {
	TransactionID string  `json:"transaction_id" binding:"required"`
	DocumentID    uint    `json:"document_id" binding:"required"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status" binding:"required"`
}

// SettleService reconciles gateway payment results against invoices. The
// gateway delivers at least once; the payments table's unique transaction
// index makes every redelivery a no-op, so applying an event twice can never
// double-count an amount.
type SettleService struct {
	docRepo     repository.DocumentRepository
	paymentRepo repository.PaymentRepository
	eventRepo   repository.EventRepository
	effects     *Effects
}

// NewSettleService creates a new settlement service
func NewSettleService(docRepo repository.DocumentRepository, paymentRepo repository.PaymentRepository, eventRepo repository.EventRepository, effects *Effects) *SettleService {
	return &SettleService{
		docRepo:     docRepo,
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		effects:     effects,
	}
}

// HandleGatewayEvent applies one gateway result. Duplicates return nil so
// the webhook endpoint acknowledges them and the gateway stops retrying.
func (s *SettleService) HandleGatewayEvent(ctx context.Context, evt GatewayEvent) error {
	if evt.Status != models.PaymentSucceeded && evt.Status != models.PaymentFailed {
		metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("unknown payment status %q", evt.Status)
	}

	doc, err := s.docRepo.FindByIDWithDetails(ctx, evt.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
			return ErrNotFound
		}
		return err
	}
	if doc.Type != models.DocTypeInvoice {
		metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("document %d is not an invoice", doc.ID)
	}

	payment := &models.Payment{
		DocumentID:           doc.ID,
		GatewayTransactionID: evt.TransactionID,
		Amount:               models.RoundCents(evt.Amount),
		Status:               evt.Status,
	}
	if err := s.paymentRepo.Record(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			logger.Info(fmt.Sprintf("Duplicate gateway delivery for document %d txn %s, skipping", doc.ID, evt.TransactionID))
			metrics.WebhooksTotal.WithLabelValues("duplicate").Inc()
			return nil
		}
		return err
	}

	if evt.Status == models.PaymentFailed {
		// A failed attempt is audit-worthy but moves no state
		payload, _ := json.Marshal(map[string]interface{}{
			"transaction_id": evt.TransactionID,
			"amount":         payment.Amount,
		})
		event := &models.Event{
			DocumentID: doc.ID,
			EventType:  models.EventPaymentFailed,
			FromStatus: doc.Status,
			ToStatus:   doc.Status,
			Payload:    payload,
			ActorType:  models.ActorSystem,
		}
		if err := s.eventRepo.Append(ctx, event); err != nil {
			return err
		}
		metrics.WebhooksTotal.WithLabelValues("failed_payment").Inc()
		return nil
	}

	if err := s.applySucceeded(ctx, doc.ID, payment); err != nil {
		return err
	}
	metrics.WebhooksTotal.WithLabelValues("ok").Inc()
	return nil
}

// applySucceeded recomputes the paid total from the payments table and moves
// the invoice to partially_paid or paid. The amount is always re-derived
// from persisted rows, never accumulated in memory, so retries after an
// optimistic-lock conflict converge on the same result.
func (s *SettleService) applySucceeded(ctx context.Context, docID uint, payment *models.Payment) error {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, err := s.docRepo.FindByIDWithDetails(ctx, docID)
		if err != nil {
			return err
		}

		paid, err := s.paymentRepo.SumSucceeded(ctx, docID)
		if err != nil {
			return err
		}
		paid = models.RoundCents(paid)
		amountDue := models.RoundCents(doc.Total - paid)
		if amountDue < 0 {
			amountDue = 0
		}

		// The state machine is the single authority on whether and where
		// this payment moves the invoice.
		fromStatus := doc.Status
		fullyPaid := amountDue == 0
		ifsm := statemachine.NewInvoiceFSM(doc)
		var transitionErr error
		if fullyPaid {
			transitionErr = ifsm.FullPayment(ctx)
		} else {
			transitionErr = ifsm.PartialPayment(ctx)
		}
		if transitionErr != nil {
			// Money arrived against a document that cannot transition (e.g.
			// already paid via another channel). Keep the audit trail honest.
			payload, _ := json.Marshal(map[string]interface{}{
				"transaction_id": payment.GatewayTransactionID,
				"amount":         payment.Amount,
				"applied":        false,
			})
			event := &models.Event{
				DocumentID: docID,
				EventType:  models.EventPaymentSucceeded,
				FromStatus: fromStatus,
				ToStatus:   fromStatus,
				Payload:    payload,
				ActorType:  models.ActorSystem,
			}
			return s.eventRepo.Append(ctx, event)
		}
		newStatus := doc.Status

		payload, _ := json.Marshal(map[string]interface{}{
			"transaction_id": payment.GatewayTransactionID,
			"amount":         payment.Amount,
			"amount_paid":    paid,
			"amount_due":     amountDue,
		})
		event := &models.Event{
			EventType:  models.EventPaymentSucceeded,
			FromStatus: fromStatus,
			ToStatus:   newStatus,
			Payload:    payload,
			ActorType:  models.ActorSystem,
		}
		updates := map[string]interface{}{
			"status":      newStatus,
			"amount_paid": paid,
			"amount_due":  amountDue,
		}
		if fullyPaid {
			updates["paid_at"] = time.Now()
		}

		err = s.docRepo.Transition(ctx, docID, doc.LockVersion, updates, event)
		if err == nil {
			metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventPaymentSucceeded).Inc()
			doc.AmountPaid = paid
			doc.AmountDue = amountDue
			s.effects.EnqueuePaymentReceipt(doc, payment)
			return nil
		}
		if errors.Is(err, repository.ErrStaleDocument) {
			metrics.TransitionConflicts.Inc()
			continue
		}
		return err
	}
	return fmt.Errorf("could not settle payment for document %d after %d attempts: %w", docID, maxAttempts, repository.ErrStaleDocument)
}
