package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/jobs"
	"github.com/draftsign/draftsign-api/internal/metrics"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

// Effects enqueues the side effects that follow a committed transition:
// rendering the PDF snapshot and sending notification email. Effects run
// after the transition's transaction, never inside it, so a slow renderer
// cannot hold a database lock and a failed email cannot roll back a sent
// document. Jobs for the same document are serialized by the worker lane.
type Effects struct {
	worker    *jobs.Worker
	render    *RenderService
	email     *EmailService
	eventRepo repository.EventRepository
	cfg       *config.Config
}

// NewEffects creates the effect pipeline
func NewEffects(worker *jobs.Worker, render *RenderService, email *EmailService, eventRepo repository.EventRepository, cfg *config.Config) *Effects {
	return &Effects{
		worker:    worker,
		render:    render,
		email:     email,
		eventRepo: eventRepo,
		cfg:       cfg,
	}
}

// EnqueueRender schedules a PDF render for the document
func (e *Effects) EnqueueRender(docID uint) {
	e.enqueue(docID, "render", func(ctx context.Context) error {
		return e.render.RenderAndStore(ctx, docID)
	})
}

// EnqueueLinkEmail schedules the access-link email. The raw token only lives
// in this closure; once the email is out it is gone from the process.
func (e *Effects) EnqueueLinkEmail(doc *models.Document, link string) {
	snapshot := *doc
	e.enqueue(doc.ID, "notify", func(ctx context.Context) error {
		return e.email.SendDocumentLink(ctx, &snapshot, link)
	})
}

// EnqueueSignedConfirmation schedules the post-signature email
func (e *Effects) EnqueueSignedConfirmation(doc *models.Document) {
	snapshot := *doc
	e.enqueue(doc.ID, "notify", func(ctx context.Context) error {
		return e.email.SendSignedConfirmation(ctx, &snapshot)
	})
}

// EnqueuePaymentReceipt schedules the receipt email for a reconciled payment
func (e *Effects) EnqueuePaymentReceipt(doc *models.Document, payment *models.Payment) {
	docSnap := *doc
	paySnap := *payment
	e.enqueue(doc.ID, "notify", func(ctx context.Context) error {
		return e.email.SendPaymentReceipt(ctx, &docSnap, &paySnap)
	})
}

// enqueue wraps the job with bounded retries and pushes it onto the
// document's FIFO lane. Exhausted jobs leave a job_failed audit event so the
// operator can see the document needs attention; the document's status is
// never rolled back by a failed effect.
func (e *Effects) enqueue(docID uint, kind string, job jobs.Job) {
	timed := func(ctx context.Context) error {
		start := time.Now()
		err := job(ctx)
		metrics.JobDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		metrics.JobsTotal.WithLabelValues(kind, "ok").Inc()
		return nil
	}

	onExhausted := func(ctx context.Context, cause error) {
		metrics.JobsTotal.WithLabelValues(kind, "exhausted").Inc()
		payload, _ := json.Marshal(map[string]interface{}{
			"job":      kind,
			"error":    cause.Error(),
			"attempts": e.cfg.JobMaxAttempts,
		})
		event := &models.Event{
			DocumentID: docID,
			EventType:  models.EventJobFailed,
			ActorType:  models.ActorSystem,
			Payload:    payload,
		}
		if err := e.eventRepo.Append(ctx, event); err != nil {
			logger.Error(fmt.Sprintf("Failed to record job failure for document %d: %v", docID, err))
		}
	}

	e.worker.EnqueueForDocument(docID, jobs.Retry(e.cfg.JobMaxAttempts, time.Second, timed, onExhausted))
}
