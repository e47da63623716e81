package statemachine

import (
	"context"
	"fmt"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/looplab/fsm"
)

// ContractFSM wraps a contract document with its state machine
type ContractFSM struct {
	doc *models.Document
	fsm *fsm.FSM
}

// NewContractFSM creates a new contract state machine
func NewContractFSM(doc *models.Document) *ContractFSM {
	cfsm := &ContractFSM{
		doc: doc,
	}

	cfsm.fsm = fsm.NewFSM(
		doc.Status,
		fsm.Events{
			// draft → sent (operator send)
			{Name: "send", Src: []string{models.StatusDraft}, Dst: models.StatusSent},

			// sent → viewed (first valid token validation per epoch)
			{Name: "view", Src: []string{models.StatusSent}, Dst: models.StatusViewed},

			// viewed → signed (counterpart acknowledgment + typed name)
			{Name: "sign", Src: []string{models.StatusViewed}, Dst: models.StatusSigned},

			// sent/viewed → declined
			{Name: "decline", Src: []string{models.StatusSent, models.StatusViewed}, Dst: models.StatusDeclined},

			// sent/viewed → expired (system, token past expiry)
			{Name: "expire", Src: []string{models.StatusSent, models.StatusViewed}, Dst: models.StatusExpired},

			// any non-terminal → cancelled (operator)
			{Name: "cancel", Src: []string{models.StatusDraft, models.StatusSent, models.StatusViewed}, Dst: models.StatusCancelled},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Send transitions the contract to sent
func (c *ContractFSM) Send(ctx context.Context) error {
	if !c.doc.MaySend() {
		return fmt.Errorf("contract cannot be sent in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "send"); err != nil {
		return fmt.Errorf("failed to send contract: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// View transitions the contract to viewed
func (c *ContractFSM) View(ctx context.Context) error {
	if !c.doc.MayView() {
		return fmt.Errorf("contract cannot be viewed in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "view"); err != nil {
		return fmt.Errorf("failed to mark contract viewed: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// Sign transitions the contract to signed
func (c *ContractFSM) Sign(ctx context.Context) error {
	if !c.doc.MaySign() {
		return fmt.Errorf("contract cannot be signed in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "sign"); err != nil {
		return fmt.Errorf("failed to sign contract: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// Decline transitions the contract to declined
func (c *ContractFSM) Decline(ctx context.Context) error {
	if !c.doc.MayDecline() {
		return fmt.Errorf("contract cannot be declined in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "decline"); err != nil {
		return fmt.Errorf("failed to decline contract: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// Expire transitions the contract to expired
func (c *ContractFSM) Expire(ctx context.Context) error {
	if !c.doc.MayExpire() {
		return fmt.Errorf("contract cannot expire in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "expire"); err != nil {
		return fmt.Errorf("failed to expire contract: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// Cancel transitions the contract to cancelled
func (c *ContractFSM) Cancel(ctx context.Context) error {
	if !c.doc.MayCancel() {
		return fmt.Errorf("contract cannot be cancelled in current state: %s", c.doc.Status)
	}

	if err := c.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel contract: %w", err)
	}

	c.doc.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
