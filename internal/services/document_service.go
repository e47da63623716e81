package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/mergefields"
	"github.com/draftsign/draftsign-api/internal/metrics"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/sections"
	"github.com/draftsign/draftsign-api/internal/statemachine"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

const historyCapacity = 100

// DocumentService owns the document lifecycle: creation from templates,
// draft editing with undo/redo, and every status transition. Transitions go
// through the repository's optimistic-lock update, so two racing operators
// (or an operator racing a webhook) cannot both win.
type DocumentService struct {
	repo         repository.DocumentRepository
	templateRepo repository.TemplateRepository
	clientRepo   repository.ClientRepository
	eventRepo    repository.EventRepository
	access       *AccessService
	effects      *Effects
	cfg          *config.Config

	// Per-document undo/redo stacks. In-memory and per-process: draft editing
	// is a single-operator activity and history does not survive a restart.
	historyMu sync.Mutex
	histories map[uint]*sections.History
}

// NewDocumentService creates a new document service
func NewDocumentService(
	repo repository.DocumentRepository,
	templateRepo repository.TemplateRepository,
	clientRepo repository.ClientRepository,
	eventRepo repository.EventRepository,
	access *AccessService,
	effects *Effects,
	cfg *config.Config,
) *DocumentService {
	return &DocumentService{
		repo:         repo,
		templateRepo: templateRepo,
		clientRepo:   clientRepo,
		eventRepo:    eventRepo,
		access:       access,
		effects:      effects,
		cfg:          cfg,
		histories:    make(map[uint]*sections.History),
	}
}

// CreateDocumentInput carries the fields needed to instantiate a document
type CreateDocumentInput struct {
	TenantID     uint
	TemplateID   uint
	ClientID     uint
	Title        string
	DueDate      *time.Time
	TaxRate      float64
	DiscountRate float64
	LineItems    []models.LineItem
}

// CreateFromTemplate clones a template into a fresh draft document. The
// clone gets new section ids and its own rows; later edits to either side
// never leak across.
func (s *DocumentService) CreateFromTemplate(ctx context.Context, input CreateDocumentInput) (*models.Document, error) {
	tmpl, err := s.templateRepo.FindByIDWithSections(ctx, input.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !tmpl.Active || tmpl.DeletedAt != nil {
		return nil, ErrTemplateInactive
	}
	if tmpl.TenantID != input.TenantID {
		return nil, ErrNotFound
	}

	client, err := s.clientRepo.FindByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if client.TenantID != input.TenantID {
		return nil, ErrNotFound
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = tmpl.Name
	}

	doc := &models.Document{
		TenantID:      input.TenantID,
		TemplateID:    &tmpl.ID,
		ClientID:      client.ID,
		Type:          tmpl.DocType,
		Title:         title,
		Status:        models.StatusDraft,
		ClickwrapText: tmpl.ClickwrapText,
		TaxRate:       input.TaxRate,
		DiscountRate:  input.DiscountRate,
		DueDate:       input.DueDate,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	cloned := sections.Clone(tmpl.Sections, doc.ID)
	if err := s.repo.ReplaceSections(ctx, doc.ID, cloned); err != nil {
		return nil, err
	}

	if doc.Type == models.DocTypeInvoice && len(input.LineItems) > 0 {
		items := input.LineItems
		for i := range items {
			items[i].DocumentID = doc.ID
			items[i].Position = i
		}
		if err := s.repo.ReplaceLineItems(ctx, doc.ID, items); err != nil {
			return nil, err
		}
		doc.LineItems = items
		doc.RecalculateTotals()
		doc.AmountDue = doc.Total
		if err := s.repo.Update(ctx, doc); err != nil {
			return nil, err
		}
	}

	event := &models.Event{
		DocumentID: doc.ID,
		EventType:  models.EventCreated,
		ToStatus:   models.StatusDraft,
		ActorType:  models.ActorOperator,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return nil, err
	}

	return s.repo.FindByIDWithDetails(ctx, doc.ID)
}

// FindByIDWithDetails gets a document with all nested associations preloaded
func (s *DocumentService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, query *repository.DocumentQuery) ([]models.Document, int64, error) {
	return s.repo.List(ctx, query)
}

// ListEvents returns the document's audit trail in recorded order
func (s *DocumentService) ListEvents(ctx context.Context, docID uint) ([]models.Event, error) {
	return s.eventRepo.ListByDocument(ctx, docID)
}

// DraftPatch carries the mutable metadata of a draft document
type DraftPatch struct {
	Title         *string
	ClickwrapText *string
	DueDate       *time.Time
	TaxRate       *float64
	DiscountRate  *float64
}

// UpdateDraft applies metadata changes to a draft
func (s *DocumentService) UpdateDraft(ctx context.Context, docID uint, patch DraftPatch) (*models.Document, error) {
	doc, err := s.editableDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("title cannot be empty")
		}
		doc.Title = *patch.Title
	}
	if patch.ClickwrapText != nil {
		doc.ClickwrapText = *patch.ClickwrapText
	}
	if patch.DueDate != nil {
		doc.DueDate = patch.DueDate
	}
	if patch.TaxRate != nil {
		doc.TaxRate = *patch.TaxRate
	}
	if patch.DiscountRate != nil {
		doc.DiscountRate = *patch.DiscountRate
	}
	doc.RecalculateTotals()
	doc.AmountDue = doc.Total

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateLineItems replaces a draft invoice's line items and recomputes totals
func (s *DocumentService) UpdateLineItems(ctx context.Context, docID uint, items []models.LineItem) (*models.Document, error) {
	doc, err := s.editableDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Type != models.DocTypeInvoice {
		return nil, fmt.Errorf("only invoices carry line items")
	}
	for i := range items {
		if strings.TrimSpace(items[i].Description) == "" {
			return nil, fmt.Errorf("line item %d has no description", i)
		}
		if items[i].Quantity <= 0 || items[i].UnitPrice < 0 {
			return nil, fmt.Errorf("line item %d has invalid quantity or price", i)
		}
		items[i].ID = 0
		items[i].DocumentID = doc.ID
		items[i].Position = i
	}

	if err := s.repo.ReplaceLineItems(ctx, docID, items); err != nil {
		return nil, err
	}
	doc.LineItems = items
	doc.RecalculateTotals()
	doc.AmountDue = doc.Total
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// InsertSection adds an empty section of the given type after afterID (or at
// the end when afterID is empty)
func (s *DocumentService) InsertSection(ctx context.Context, docID uint, afterID string, t models.SectionType) ([]models.Section, error) {
	return s.applyEdit(ctx, docID, sections.InsertAfterCommand(afterID, t))
}

// DeleteSection removes a section. The last remaining section is protected.
func (s *DocumentService) DeleteSection(ctx context.Context, docID uint, sectionID string) ([]models.Section, error) {
	return s.applyEdit(ctx, docID, sections.DeleteCommand(sectionID))
}

// MoveSection moves a section to a new position
func (s *DocumentService) MoveSection(ctx context.Context, docID uint, sectionID string, newIndex int) ([]models.Section, error) {
	return s.applyEdit(ctx, docID, sections.MoveCommand(sectionID, newIndex))
}

// ChangeSectionType converts a section to another type, resetting its content
func (s *DocumentService) ChangeSectionType(ctx context.Context, docID uint, sectionID string, t models.SectionType) ([]models.Section, error) {
	return s.applyEdit(ctx, docID, sections.ChangeTypeCommand(sectionID, t))
}

// UpdateSectionContent replaces a section's content. The content variant must
// match the section's current type.
func (s *DocumentService) UpdateSectionContent(ctx context.Context, docID uint, sectionID string, content models.SectionContent) ([]models.Section, error) {
	return s.applyEdit(ctx, docID, sections.UpdateContentCommand(sectionID, content))
}

// Undo reverses the last section edit
func (s *DocumentService) Undo(ctx context.Context, docID uint) ([]models.Section, error) {
	doc, err := s.editableDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	hist := s.history(docID)
	if !hist.CanUndo() {
		return nil, ErrNothingToUndo
	}
	editor := sections.NewEditor(doc.ID, doc.Sections)
	if err := hist.Undo(editor); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceSections(ctx, docID, editor.Sections()); err != nil {
		return nil, err
	}
	return editor.Sections(), nil
}

// Redo re-applies the last undone section edit
func (s *DocumentService) Redo(ctx context.Context, docID uint) ([]models.Section, error) {
	doc, err := s.editableDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	hist := s.history(docID)
	if !hist.CanRedo() {
		return nil, ErrNothingToRedo
	}
	editor := sections.NewEditor(doc.ID, doc.Sections)
	if err := hist.Redo(editor); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceSections(ctx, docID, editor.Sections()); err != nil {
		return nil, err
	}
	return editor.Sections(), nil
}

// MergeFieldPreview returns the document's sections with merge fields
// substituted from current data, plus the keys that could not be resolved
func (s *DocumentService) MergeFieldPreview(ctx context.Context, docID uint) ([]models.Section, []mergefields.Key, error) {
	doc, err := s.FindByIDWithDetails(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	keys := mergefields.Extract(doc.Sections)
	values, warnings := mergefields.Resolve(keys, mergefields.Context{
		Client:   &doc.Client,
		Tenant:   &doc.Tenant,
		Document: doc,
		Now:      time.Now(),
	})
	return mergefields.Render(doc.Sections, values), warnings, nil
}

// Send moves a draft to sent: validates readiness, issues the access token,
// commits the transition with its audit event, then enqueues the render and
// the link email. Effects never run unless the transition committed.
func (s *DocumentService) Send(ctx context.Context, docID uint, actorID *uint) (*models.Document, error) {
	doc, err := s.FindByIDWithDetails(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.MaySend() {
		return nil, ErrInvalidState
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%w: document has no sections", ErrNotSendable)
	}
	if strings.TrimSpace(doc.Client.Email) == "" {
		return nil, fmt.Errorf("%w: client has no email address", ErrNotSendable)
	}
	if doc.Type == models.DocTypeInvoice {
		if len(doc.LineItems) == 0 {
			return nil, fmt.Errorf("%w: invoice has no line items", ErrNotSendable)
		}
		if doc.Total <= 0 {
			return nil, fmt.Errorf("%w: invoice total must be positive", ErrNotSendable)
		}
	}

	raw, digest, err := s.access.NewToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expiresAt := now.Add(s.access.TTL(&doc.Tenant))

	fromStatus := doc.Status
	if err := s.fireFSM(ctx, doc, "send"); err != nil {
		return nil, err
	}

	event := &models.Event{
		EventType:  models.EventSent,
		FromStatus: fromStatus,
		ToStatus:   doc.Status,
		ActorType:  models.ActorOperator,
		ActorID:    actorID,
	}
	updates := map[string]interface{}{
		"status":           doc.Status,
		"sent_at":          now,
		"token_digest":     digest,
		"token_expires_at": expiresAt,
		"token_epoch":      doc.TokenEpoch + 1,
	}
	if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
		return nil, s.mapStale(err)
	}
	metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventSent).Inc()

	doc.SentAt = &now
	doc.TokenExpiresAt = &expiresAt
	doc.TokenEpoch++
	doc.LockVersion++
	s.dropHistory(docID)

	s.effects.EnqueueRender(doc.ID)
	s.effects.EnqueueLinkEmail(doc, s.access.PublicURL(raw))
	return doc, nil
}

// ResendLink reissues the access token and re-sends the link email. The old
// link stops resolving the moment the new digest lands.
func (s *DocumentService) ResendLink(ctx context.Context, docID uint) (*models.Document, error) {
	raw, doc, err := s.access.Reissue(ctx, docID)
	if err != nil {
		return nil, s.mapStale(err)
	}
	s.effects.EnqueueLinkEmail(doc, s.access.PublicURL(raw))
	return doc, nil
}

// MarkViewed records a counterpart opening the document. The viewed
// transition fires once per token epoch: the first open of a reissued link
// is audit-worthy even when the status is already past sent. Races with
// concurrent opens are benign and swallowed.
func (s *DocumentService) MarkViewed(ctx context.Context, doc *models.Document, ip, userAgent string) error {
	now := time.Now()

	if doc.MayView() {
		fromStatus := doc.Status
		if err := s.fireFSM(ctx, doc, "view"); err != nil {
			return nil
		}
		event := &models.Event{
			EventType:  models.EventViewed,
			FromStatus: fromStatus,
			ToStatus:   doc.Status,
			ActorType:  models.ActorCounterpart,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}
		updates := map[string]interface{}{
			"status":       doc.Status,
			"viewed_at":    now,
			"viewed_epoch": doc.TokenEpoch,
		}
		if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
			if errors.Is(err, repository.ErrStaleDocument) {
				metrics.TransitionConflicts.Inc()
				return nil
			}
			return err
		}
		metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventViewed).Inc()
		doc.ViewedAt = &now
		doc.ViewedEpoch = doc.TokenEpoch
		doc.LockVersion++
		return nil
	}

	// First open of a reissued link on an already-viewed document
	if doc.Status == models.StatusViewed && doc.ViewedEpoch < doc.TokenEpoch {
		event := &models.Event{
			EventType:  models.EventViewed,
			FromStatus: doc.Status,
			ToStatus:   doc.Status,
			ActorType:  models.ActorCounterpart,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}
		updates := map[string]interface{}{
			"viewed_epoch": doc.TokenEpoch,
		}
		if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
			if errors.Is(err, repository.ErrStaleDocument) {
				metrics.TransitionConflicts.Inc()
				return nil
			}
			return err
		}
		doc.ViewedEpoch = doc.TokenEpoch
		doc.LockVersion++
	}
	return nil
}

// Sign executes a contract: requires the clickwrap acknowledgement and a
// typed signer name, and only fires from viewed
func (s *DocumentService) Sign(ctx context.Context, doc *models.Document, signerName string, accepted bool, ip, userAgent string) (*models.Document, error) {
	if !doc.MaySign() {
		return nil, ErrInvalidState
	}
	if !accepted {
		return nil, ErrClickwrapRequired
	}
	signerName = strings.TrimSpace(signerName)
	if signerName == "" {
		return nil, ErrSignerNameRequired
	}

	fromStatus := doc.Status
	if err := s.fireFSM(ctx, doc, "sign"); err != nil {
		return nil, err
	}

	now := time.Now()
	payload, _ := json.Marshal(map[string]string{"signer_name": signerName})
	event := &models.Event{
		EventType:  models.EventSigned,
		FromStatus: fromStatus,
		ToStatus:   doc.Status,
		Payload:    payload,
		ActorType:  models.ActorCounterpart,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	updates := map[string]interface{}{
		"status":      doc.Status,
		"signed_at":   now,
		"signer_name": signerName,
	}
	if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
		return nil, s.mapStale(err)
	}
	metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventSigned).Inc()

	doc.SignedAt = &now
	doc.SignerName = &signerName
	doc.LockVersion++

	s.effects.EnqueueRender(doc.ID)
	s.effects.EnqueueSignedConfirmation(doc)
	return doc, nil
}

// Decline records the counterpart rejecting a contract
func (s *DocumentService) Decline(ctx context.Context, doc *models.Document, reason, ip, userAgent string) (*models.Document, error) {
	if !doc.MayDecline() {
		return nil, ErrInvalidState
	}

	fromStatus := doc.Status
	if err := s.fireFSM(ctx, doc, "decline"); err != nil {
		return nil, err
	}

	now := time.Now()
	var payload json.RawMessage
	if reason != "" {
		payload, _ = json.Marshal(map[string]string{"reason": reason})
	}
	event := &models.Event{
		EventType:  models.EventDeclined,
		FromStatus: fromStatus,
		ToStatus:   doc.Status,
		Payload:    payload,
		ActorType:  models.ActorCounterpart,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	updates := map[string]interface{}{
		"status":      doc.Status,
		"declined_at": now,
	}
	if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
		return nil, s.mapStale(err)
	}
	metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventDeclined).Inc()

	doc.DeclinedAt = &now
	doc.LockVersion++
	return doc, nil
}

// Cancel withdraws a document. The token digest is cleared so the public
// link dies immediately.
func (s *DocumentService) Cancel(ctx context.Context, docID uint, actorID *uint) (*models.Document, error) {
	doc, err := s.FindByIDWithDetails(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.MayCancel() {
		return nil, ErrInvalidState
	}

	fromStatus := doc.Status
	if err := s.fireFSM(ctx, doc, "cancel"); err != nil {
		return nil, err
	}

	now := time.Now()
	event := &models.Event{
		EventType:  models.EventCancelled,
		FromStatus: fromStatus,
		ToStatus:   doc.Status,
		ActorType:  models.ActorOperator,
		ActorID:    actorID,
	}
	updates := map[string]interface{}{
		"status":       doc.Status,
		"cancelled_at": now,
		"token_digest": nil,
	}
	if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
		return nil, s.mapStale(err)
	}
	metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventCancelled).Inc()

	doc.CancelledAt = &now
	doc.TokenDigest = nil
	doc.LockVersion++
	s.dropHistory(docID)
	return doc, nil
}

// ExpireStale transitions contracts whose link expired while awaiting
// signature. Run on a schedule; losers of concurrent transitions are skipped.
func (s *DocumentService) ExpireStale(ctx context.Context) (int, error) {
	docs, err := s.repo.FindExpirable(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range docs {
		doc := &docs[i]
		fromStatus := doc.Status
		if err := s.fireFSM(ctx, doc, "expire"); err != nil {
			continue
		}
		now := time.Now()
		event := &models.Event{
			EventType:  models.EventExpired,
			FromStatus: fromStatus,
			ToStatus:   doc.Status,
			ActorType:  models.ActorSystem,
		}
		updates := map[string]interface{}{
			"status":     doc.Status,
			"expired_at": now,
		}
		if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
			if errors.Is(err, repository.ErrStaleDocument) {
				metrics.TransitionConflicts.Inc()
				continue
			}
			logger.Error(fmt.Sprintf("Failed to expire document %d: %v", doc.ID, err))
			continue
		}
		metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventExpired).Inc()
		expired++
	}
	return expired, nil
}

// MarkOverdueSweep transitions invoices past their due date to overdue
func (s *DocumentService) MarkOverdueSweep(ctx context.Context) (int, error) {
	docs, err := s.repo.FindOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range docs {
		doc := &docs[i]
		if !doc.MayMarkOverdue() {
			continue
		}
		fromStatus := doc.Status
		if err := s.fireFSM(ctx, doc, "mark_overdue"); err != nil {
			continue
		}
		event := &models.Event{
			EventType:  models.EventOverdue,
			FromStatus: fromStatus,
			ToStatus:   doc.Status,
			ActorType:  models.ActorSystem,
		}
		updates := map[string]interface{}{
			"status": doc.Status,
		}
		if err := s.repo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
			if errors.Is(err, repository.ErrStaleDocument) {
				metrics.TransitionConflicts.Inc()
				continue
			}
			logger.Error(fmt.Sprintf("Failed to mark document %d overdue: %v", doc.ID, err))
			continue
		}
		metrics.TransitionsTotal.WithLabelValues(string(doc.Type), models.EventOverdue).Inc()
		marked++
	}
	return marked, nil
}

// fireFSM runs the named lifecycle event through the document's state
// machine, mutating doc.Status on success
func (s *DocumentService) fireFSM(ctx context.Context, doc *models.Document, eventName string) error {
	var err error
	if doc.Type == models.DocTypeContract {
		fsm := statemachine.NewContractFSM(doc)
		switch eventName {
		case "send":
			err = fsm.Send(ctx)
		case "view":
			err = fsm.View(ctx)
		case "sign":
			err = fsm.Sign(ctx)
		case "decline":
			err = fsm.Decline(ctx)
		case "expire":
			err = fsm.Expire(ctx)
		case "cancel":
			err = fsm.Cancel(ctx)
		default:
			err = fmt.Errorf("unknown contract event %q", eventName)
		}
	} else {
		fsm := statemachine.NewInvoiceFSM(doc)
		switch eventName {
		case "send":
			err = fsm.Send(ctx)
		case "view":
			err = fsm.View(ctx)
		case "mark_overdue":
			err = fsm.MarkOverdue(ctx)
		case "cancel":
			err = fsm.Cancel(ctx)
		default:
			// Payment events never come through here: settlement drives
			// the invoice machine itself from the gateway webhook.
			err = fmt.Errorf("unknown invoice event %q", eventName)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

// applyEdit runs one reversible section command against a draft and persists
// the result
func (s *DocumentService) applyEdit(ctx context.Context, docID uint, cmd sections.Command) ([]models.Section, error) {
	doc, err := s.editableDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	editor := sections.NewEditor(doc.ID, doc.Sections)
	hist := s.history(docID)
	if err := hist.Apply(editor, cmd); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceSections(ctx, docID, editor.Sections()); err != nil {
		return nil, err
	}
	return editor.Sections(), nil
}

// editableDocument loads a document and verifies it is still a draft
func (s *DocumentService) editableDocument(ctx context.Context, docID uint) (*models.Document, error) {
	doc, err := s.FindByIDWithDetails(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.StatusDraft {
		return nil, ErrEditLocked
	}
	return doc, nil
}

func (s *DocumentService) history(docID uint) *sections.History {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	h, ok := s.histories[docID]
	if !ok {
		h = sections.NewHistory(historyCapacity)
		s.histories[docID] = h
	}
	return h
}

// dropHistory discards the undo/redo stacks once a document leaves draft
func (s *DocumentService) dropHistory(docID uint) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	delete(s.histories, docID)
}

func (s *DocumentService) mapStale(err error) error {
	if errors.Is(err, repository.ErrStaleDocument) {
		metrics.TransitionConflicts.Inc()
	}
	return err
}
