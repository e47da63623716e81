package repository

import (
	"context"

	"github.com/draftsign/draftsign-api/internal/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) FindByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}
