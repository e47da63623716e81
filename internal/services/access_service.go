package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/metrics"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
)

// AccessService manages the opaque public-link tokens. Raw tokens are shown
// exactly once (in the outgoing email); the database only ever holds their
// SHA-256 digest, so a leaked dump cannot forge working links.
type AccessService struct {
	docRepo    repository.DocumentRepository
	tenantRepo repository.TenantRepository
	cfg        *config.Config
}

// NewAccessService creates a new access service
func NewAccessService(docRepo repository.DocumentRepository, tenantRepo repository.TenantRepository, cfg *config.Config) *AccessService {
	return &AccessService{
		docRepo:    docRepo,
		tenantRepo: tenantRepo,
		cfg:        cfg,
	}
}

// NewToken generates a fresh 256-bit token and its storage digest
func (s *AccessService) NewToken() (raw string, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, s.Digest(raw), nil
}

// Digest returns the hex SHA-256 of a raw token
func (s *AccessService) Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TTL returns the link lifetime for a tenant (tenant override or global default)
func (s *AccessService) TTL(tenant *models.Tenant) time.Duration {
	days := s.cfg.TokenTTLDays
	if tenant != nil && tenant.TokenTTLDays > 0 {
		days = tenant.TokenTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// PublicURL builds the counterpart-facing link for a raw token
func (s *AccessService) PublicURL(raw string) string {
	return fmt.Sprintf("%s/p/%s", s.cfg.PublicBaseURL, raw)
}

// Reissue replaces the document's token with a fresh one. The epoch bump
// invalidates nothing at the storage level (the digest column is simply
// overwritten) but lets the view-once logic fire again for the new link.
// Returns the new raw token for the outgoing email.
func (s *AccessService) Reissue(ctx context.Context, docID uint) (string, *models.Document, error) {
	doc, err := s.docRepo.FindByIDWithDetails(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if doc.Status == models.StatusDraft || doc.IsTerminal() {
		return "", nil, ErrInvalidState
	}

	raw, digest, err := s.NewToken()
	if err != nil {
		return "", nil, err
	}
	expiresAt := time.Now().Add(s.TTL(&doc.Tenant))

	event := &models.Event{
		EventType:  models.EventTokenReissued,
		FromStatus: doc.Status,
		ToStatus:   doc.Status,
		ActorType:  models.ActorOperator,
	}
	updates := map[string]interface{}{
		"token_digest":     digest,
		"token_expires_at": expiresAt,
		"token_epoch":      doc.TokenEpoch + 1,
	}
	if err := s.docRepo.Transition(ctx, doc.ID, doc.LockVersion, updates, event); err != nil {
		return "", nil, err
	}

	doc.TokenExpiresAt = &expiresAt
	doc.TokenEpoch++
	doc.LockVersion++
	return raw, doc, nil
}

// Validate resolves a raw token to its document. It fails closed: an unknown
// digest and a revoked link are indistinguishable to the caller.
func (s *AccessService) Validate(ctx context.Context, raw string) (*models.Document, error) {
	if raw == "" {
		metrics.TokenValidations.WithLabelValues("revoked").Inc()
		return nil, ErrLinkRevoked
	}
	doc, err := s.docRepo.FindByTokenDigest(ctx, s.Digest(raw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.TokenValidations.WithLabelValues("revoked").Inc()
			return nil, ErrLinkRevoked
		}
		return nil, err
	}
	if doc.Status == models.StatusCancelled {
		metrics.TokenValidations.WithLabelValues("revoked").Inc()
		return nil, ErrLinkRevoked
	}
	if doc.TokenExpired(time.Now()) {
		metrics.TokenValidations.WithLabelValues("expired").Inc()
		return nil, ErrLinkExpired
	}
	metrics.TokenValidations.WithLabelValues("ok").Inc()
	return doc, nil
}
