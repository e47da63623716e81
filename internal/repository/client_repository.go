package repository

import (
	"context"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// ClientRepository defines the interface for client (counterpart) data access
type ClientRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Client, int64, error)
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).First(&client, id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *clientRepository) List(ctx context.Context, tenantID uint, query *ListQuery) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Client{}).Where("tenant_id = ?", tenantID)
	if query.Search != "" {
		db = db.Where("full_name ILIKE ? OR email ILIKE ?", "%"+query.Search+"%", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("full_name ASC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&clients).Error
	return clients, total, err
}
