package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/sections"
	"github.com/draftsign/draftsign-api/internal/services"
	"github.com/draftsign/draftsign-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Template *TemplateHandler
	Document *DocumentHandler
	Public   *PublicHandler
	Webhook  *WebhookHandler
	Job      *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, artifacts storage.Artifacts, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Template: NewTemplateHandler(svcs.Template),
		Document: NewDocumentHandler(svcs.Document, svcs.Export, artifacts),
		Public:   NewPublicHandler(svcs.Access, svcs.Document, svcs.Gateway),
		Webhook:  NewWebhookHandler(svcs.Settle, cfg),
		Job:      NewJobHandler(svcs.Job),
	}
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, sections.ErrSectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrLinkRevoked):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrLinkExpired):
		status = http.StatusGone
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrEditLocked),
		errors.Is(err, services.ErrNothingToUndo),
		errors.Is(err, services.ErrNothingToRedo),
		errors.Is(err, repository.ErrStaleDocument):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotSendable),
		errors.Is(err, services.ErrClickwrapRequired),
		errors.Is(err, services.ErrSignerNameRequired),
		errors.Is(err, services.ErrTemplateInactive),
		errors.Is(err, sections.ErrLastSection),
		errors.Is(err, sections.ErrUnknownType),
		errors.Is(err, sections.ErrContentMismatch),
		errors.Is(err, sections.ErrBadIndex):
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
