package repository

import (
	"context"
	"strings"
	"time"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// DocumentRepository defines the interface for document data access
type DocumentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Document, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Document, error)
	FindByTokenDigest(ctx context.Context, digest string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	List(ctx context.Context, query *DocumentQuery) ([]models.Document, int64, error)
	Transition(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error
	ReplaceSections(ctx context.Context, docID uint, sections []models.Section) error
	ReplaceLineItems(ctx context.Context, docID uint, items []models.LineItem) error
	UpdateArtifactPath(ctx context.Context, docID uint, path string) error
	FindExpirable(ctx context.Context, now time.Time) ([]models.Document, error)
	FindOverdue(ctx context.Context, now time.Time) ([]models.Document, error)
}

// DocumentQuery extends ListQuery with document-specific filters
type DocumentQuery struct {
	*ListQuery
	TenantID uint
	Type     models.DocumentType
	Status   string
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) FindByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Joins("Client").
		Joins("Tenant").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByTokenDigest is the public-gateway lookup: one indexed equality match,
// no status filtering, so the caller can distinguish expired from revoked.
func (r *documentRepository) FindByTokenDigest(ctx context.Context, digest string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Joins("Client").
		Joins("Tenant").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("token_digest = ?", digest).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).
		Omit("Sections", "LineItems", "Events", "Payments", "Client", "Tenant").
		Save(doc).Error
}

func (r *documentRepository) List(ctx context.Context, query *DocumentQuery) ([]models.Document, int64, error) {
	var docs []models.Document
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("documents.tenant_id = ?", query.TenantID)

	if query.Type != "" {
		db = db.Where("documents.type = ?", query.Type)
	}

	// Single status or comma-separated status_in
	if val, ok := query.Filters["status_in"]; ok && val != "" {
		statuses := strings.Split(val, ",")
		for i, s := range statuses {
			statuses[i] = strings.TrimSpace(s)
		}
		db = db.Where("documents.status IN ?", statuses)
	} else if query.Status != "" {
		db = db.Where("documents.status = ?", query.Status)
	}

	if query.Search != "" {
		db = db.Where("documents.title ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Joins("Client").
		Order("documents.updated_at DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&docs).Error
	return docs, total, err
}

// Transition atomically applies a status change and appends its Event. The
// update only lands when lock_version still matches, so concurrent transitions
// serialize: the loser gets ErrStaleDocument and no row changes. A transition
// without its event, or the reverse, cannot be observed.
func (r *documentRepository) Transition(ctx context.Context, docID uint, lockVersion int, updates map[string]interface{}, event *models.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates["lock_version"] = lockVersion + 1
		res := tx.Model(&models.Document{}).
			Where("id = ? AND lock_version = ?", docID, lockVersion).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleDocument
		}
		event.DocumentID = docID
		return tx.Create(event).Error
	})
}

// ReplaceSections swaps a document's section set atomically
func (r *documentRepository) ReplaceSections(ctx context.Context, docID uint, sections []models.Section) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		if len(sections) == 0 {
			return nil
		}
		return tx.Create(&sections).Error
	})
}

// ReplaceLineItems swaps an invoice's line items atomically
func (r *documentRepository) ReplaceLineItems(ctx context.Context, docID uint, items []models.LineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// UpdateArtifactPath persists the rendered artifact location. Renders for the
// same document overwrite the same path, so this is idempotent.
func (r *documentRepository) UpdateArtifactPath(ctx context.Context, docID uint, path string) error {
	return r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", docID).
		Update("artifact_path", path).Error
}

// FindExpirable returns contracts whose token expiry has passed while still
// awaiting a signature
func (r *documentRepository) FindExpirable(ctx context.Context, now time.Time) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("type = ? AND status IN ? AND token_expires_at < ?",
			models.DocTypeContract,
			[]string{models.StatusSent, models.StatusViewed},
			now).
		Find(&docs).Error
	return docs, err
}

// FindOverdue returns invoices past their due date that are not fully paid
func (r *documentRepository) FindOverdue(ctx context.Context, now time.Time) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("type = ? AND status IN ? AND due_date < ?",
			models.DocTypeInvoice,
			[]string{models.StatusSent, models.StatusViewed, models.StatusPartiallyPaid},
			now).
		Find(&docs).Error
	return docs, err
}
