package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/looplab/fsm"
)

// InvoiceFSM wraps an invoice document with its state machine. Payment
// transitions are driven by gateway callbacks, not UI actions.
type InvoiceFSM struct {
	doc *models.Document
	fsm *fsm.FSM
}

// NewInvoiceFSM creates a new invoice state machine
func NewInvoiceFSM(doc *models.Document) *InvoiceFSM {
	ifsm := &InvoiceFSM{
		doc: doc,
	}

	ifsm.fsm = fsm.NewFSM(
		doc.Status,
		fsm.Events{
			// draft → sent (operator send)
			{Name: "send", Src: []string{models.StatusDraft}, Dst: models.StatusSent},

			// sent → viewed (first valid token validation per epoch)
			{Name: "view", Src: []string{models.StatusSent}, Dst: models.StatusViewed},

			// a charge below the amount due
			{Name: "partial_payment", Src: []string{models.StatusSent, models.StatusViewed, models.StatusPartiallyPaid, models.StatusOverdue}, Dst: models.StatusPartiallyPaid},

			// a charge covering the full remaining balance, from any
			// non-cancelled, not-yet-paid post-draft status
			{Name: "full_payment", Src: []string{models.StatusSent, models.StatusViewed, models.StatusPartiallyPaid, models.StatusOverdue}, Dst: models.StatusPaid},

			// system sweep when now > due_date and not fully paid
			{Name: "mark_overdue", Src: []string{models.StatusSent, models.StatusViewed, models.StatusPartiallyPaid}, Dst: models.StatusOverdue},

			// any non-terminal → cancelled (operator)
			{Name: "cancel", Src: []string{models.StatusDraft, models.StatusSent, models.StatusViewed, models.StatusPartiallyPaid, models.StatusOverdue}, Dst: models.StatusCancelled},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Send transitions the invoice to sent
func (i *InvoiceFSM) Send(ctx context.Context) error {
	if !i.doc.MaySend() {
		return fmt.Errorf("invoice cannot be sent in current state: %s", i.doc.Status)
	}

	if err := i.fsm.Event(ctx, "send"); err != nil {
		return fmt.Errorf("failed to send invoice: %w", err)
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// View transitions the invoice to viewed
func (i *InvoiceFSM) View(ctx context.Context) error {
	if !i.doc.MayView() {
		return fmt.Errorf("invoice cannot be viewed in current state: %s", i.doc.Status)
	}

	if err := i.fsm.Event(ctx, "view"); err != nil {
		return fmt.Errorf("failed to mark invoice viewed: %w", err)
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// PartialPayment transitions the invoice to partially_paid
func (i *InvoiceFSM) PartialPayment(ctx context.Context) error {
	if !i.doc.MayApplyPayment() {
		return fmt.Errorf("invoice cannot accept payment in current state: %s", i.doc.Status)
	}

	// A repeat charge on a partially paid invoice is a self-transition,
	// which the fsm reports as NoTransitionError. The status is still right.
	if err := i.fsm.Event(ctx, "partial_payment"); err != nil {
		var noop fsm.NoTransitionError
		if !errors.As(err, &noop) {
			return fmt.Errorf("failed to apply partial payment: %w", err)
		}
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// FullPayment transitions the invoice to paid
func (i *InvoiceFSM) FullPayment(ctx context.Context) error {
	if !i.doc.MayApplyPayment() {
		return fmt.Errorf("invoice cannot accept payment in current state: %s", i.doc.Status)
	}

	if err := i.fsm.Event(ctx, "full_payment"); err != nil {
		return fmt.Errorf("failed to apply full payment: %w", err)
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// MarkOverdue transitions the invoice to overdue
func (i *InvoiceFSM) MarkOverdue(ctx context.Context) error {
	if !i.doc.MayMarkOverdue() {
		return fmt.Errorf("invoice cannot be marked overdue in current state: %s", i.doc.Status)
	}

	if err := i.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("failed to mark invoice overdue: %w", err)
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// Cancel transitions the invoice to cancelled
func (i *InvoiceFSM) Cancel(ctx context.Context) error {
	if !i.doc.MayCancel() {
		return fmt.Errorf("invoice cannot be cancelled in current state: %s", i.doc.Status)
	}

	if err := i.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel invoice: %w", err)
	}

	i.doc.Status = i.fsm.Current()
	return nil
}

// Current returns the current state
func (i *InvoiceFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *InvoiceFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
