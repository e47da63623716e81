package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Tenant   TenantRepository
	Client   ClientRepository
	Template TemplateRepository
	Document DocumentRepository
	Event    EventRepository
	Payment  PaymentRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:   NewTenantRepository(db),
		Client:   NewClientRepository(db),
		Template: NewTemplateRepository(db),
		Document: NewDocumentRepository(db),
		Event:    NewEventRepository(db),
		Payment:  NewPaymentRepository(db),
	}
}
