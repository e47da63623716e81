package repository

import (
	"context"
	"time"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// TemplateRepository defines the interface for template data access
type TemplateRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Template, error)
	FindByIDWithSections(ctx context.Context, id uint) (*models.Template, error)
	Create(ctx context.Context, template *models.Template) error
	Update(ctx context.Context, template *models.Template) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Template, int64, error)
	ReplaceSections(ctx context.Context, templateID uint, sections []models.Section) error
	CountDocuments(ctx context.Context, templateID uint) (int64, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindByID(ctx context.Context, id uint) (*models.Template, error) {
	var template models.Template
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindByIDWithSections(ctx context.Context, id uint) (*models.Template, error) {
	var template models.Template
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) Update(ctx context.Context, template *models.Template) error {
	return r.db.WithContext(ctx).Omit("Sections").Save(template).Error
}

// SoftDelete marks a template deleted. Documents already cloned from it keep
// their own sections, so the template row only needs to disappear from lists.
func (r *templateRepository) SoftDelete(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Template{}).
		Where("id = ?", id).
		Update("deleted_at", now).Error
}

func (r *templateRepository) List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Template, int64, error) {
	var templates []models.Template
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Template{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID)

	if query.Search != "" {
		db = db.Where("name ILIKE ?", "%"+query.Search+"%")
	}
	if docType, ok := query.Filters["doc_type"]; ok && docType != "" {
		db = db.Where("doc_type = ?", docType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("updated_at DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&templates).Error
	return templates, total, err
}

// ReplaceSections swaps a template's section set atomically
func (r *templateRepository) ReplaceSections(ctx context.Context, templateID uint, sections []models.Section) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		if len(sections) == 0 {
			return nil
		}
		return tx.Create(&sections).Error
	})
}

func (r *templateRepository) CountDocuments(ctx context.Context, templateID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count, err
}
