package services

import (
	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/jobs"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Template *TemplateService
	Document *DocumentService
	Access   *AccessService
	Gateway  *GatewayService
	Settle   *SettleService
	Render   *RenderService
	Email    *EmailService
	Export   *ExportService
	Job      *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, artifacts storage.Artifacts, cfg *config.Config) *Services {
	emailSvc := NewEmailService(cfg)
	renderSvc := NewRenderService(repos.Document, artifacts, cfg)
	accessSvc := NewAccessService(repos.Document, repos.Tenant, cfg)
	effects := NewEffects(worker, renderSvc, emailSvc, repos.Event, cfg)

	return &Services{
		Template: NewTemplateService(repos.Template),
		Document: NewDocumentService(repos.Document, repos.Template, repos.Client, repos.Event, accessSvc, effects, cfg),
		Access:   accessSvc,
		Gateway:  NewGatewayService(cfg),
		Settle:   NewSettleService(repos.Document, repos.Payment, repos.Event, effects),
		Render:   renderSvc,
		Email:    emailSvc,
		Export:   NewExportService(repos.Document),
		Job:      NewJobService(worker),
	}
}
