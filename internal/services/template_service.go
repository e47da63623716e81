package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
)

// TemplateService manages reusable document blueprints. Templates are
// authoring-side only: documents clone them at creation and never reference
// their sections afterwards, so edits and deletes here cannot affect
// documents already in flight.
type TemplateService struct {
	repo repository.TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(repo repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// FindByID gets a template with its ordered sections
func (s *TemplateService) FindByID(ctx context.Context, id uint) (*models.Template, error) {
	tmpl, err := s.repo.FindByIDWithSections(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

func (s *TemplateService) List(ctx context.Context, tenantID uint, query *repository.ListQuery) ([]models.Template, int64, error) {
	return s.repo.List(ctx, tenantID, query)
}

// Create validates and persists a template together with its sections
func (s *TemplateService) Create(ctx context.Context, tmpl *models.Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if tmpl.DocType != models.DocTypeContract && tmpl.DocType != models.DocTypeInvoice {
		return fmt.Errorf("unknown document type %q", tmpl.DocType)
	}
	if err := validateSections(tmpl.Sections); err != nil {
		return err
	}
	normalizeSections(tmpl.Sections)
	return s.repo.Create(ctx, tmpl)
}

// Update persists template metadata (name, clickwrap text, active flag).
// Sections are replaced separately.
func (s *TemplateService) Update(ctx context.Context, tmpl *models.Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	return s.repo.Update(ctx, tmpl)
}

// ReplaceSections swaps the template's section set
func (s *TemplateService) ReplaceSections(ctx context.Context, templateID uint, secs []models.Section) error {
	tmpl, err := s.repo.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := validateSections(secs); err != nil {
		return err
	}
	normalizeSections(secs)
	for i := range secs {
		secs[i].TemplateID = &tmpl.ID
		secs[i].DocumentID = nil
	}
	return s.repo.ReplaceSections(ctx, templateID, secs)
}

// Delete soft-deletes a template. Existing documents keep their cloned
// sections, so this is always safe.
func (s *TemplateService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

// UsageCount reports how many documents were cloned from the template
func (s *TemplateService) UsageCount(ctx context.Context, id uint) (int64, error) {
	return s.repo.CountDocuments(ctx, id)
}

func validateSections(secs []models.Section) error {
	for i := range secs {
		if !models.ValidSectionType(secs[i].Type) {
			return fmt.Errorf("section %d has unknown type %q", i, secs[i].Type)
		}
	}
	return nil
}

// normalizeSections assigns dense positions in slice order and ids to new rows
func normalizeSections(secs []models.Section) {
	for i := range secs {
		secs[i].Position = i
		if secs[i].ID == "" {
			secs[i].ID = uuid.NewString()
		}
	}
}
