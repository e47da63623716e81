package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/services"
)

// PublicHandler serves the counterpart-facing token routes. No JWT here:
// possession of a valid link token is the whole authorization.
type PublicHandler struct {
	accessService   *services.AccessService
	documentService *services.DocumentService
	gateway         services.PaymentGateway
}

func NewPublicHandler(accessService *services.AccessService, documentService *services.DocumentService, gateway services.PaymentGateway) *PublicHandler {
	return &PublicHandler{
		accessService:   accessService,
		documentService: documentService,
		gateway:         gateway,
	}
}

// publicView is the counterpart's projection of a document: no token
// internals, no tenant bookkeeping, no lock version
type publicView struct {
	Type          models.DocumentType `json:"type"`
	Title         string              `json:"title"`
	Status        string              `json:"status"`
	CompanyName   string              `json:"company_name"`
	ClientName    string              `json:"client_name"`
	ClickwrapText string              `json:"clickwrap_text,omitempty"`
	SignerName    *string             `json:"signer_name,omitempty"`
	Sections      []models.Section    `json:"sections"`
	LineItems     []models.LineItem   `json:"line_items,omitempty"`
	Subtotal      float64             `json:"subtotal,omitempty"`
	Total         float64             `json:"total,omitempty"`
	AmountPaid    float64             `json:"amount_paid,omitempty"`
	AmountDue     float64             `json:"amount_due,omitempty"`
}

// @Summary View Document by Link
// @Description Resolve an access token to its document. Records the viewed transition on first open.
// @Tags Public
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} publicView
// @Router /p/{token} [get]
func (h *PublicHandler) Show(c *gin.Context) {
	doc, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.documentService.MarkViewed(c.Request.Context(), doc, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	// Merge fields resolve at view time so the counterpart sees current data
	secs, _, err := h.documentService.MergeFieldPreview(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	view := publicView{
		Type:          doc.Type,
		Title:         doc.Title,
		Status:        doc.Status,
		CompanyName:   doc.Tenant.CompanyName,
		ClientName:    doc.Client.FullName,
		ClickwrapText: doc.ClickwrapText,
		SignerName:    doc.SignerName,
		Sections:      secs,
		LineItems:     doc.LineItems,
		Subtotal:      doc.Subtotal,
		Total:         doc.Total,
		AmountPaid:    doc.AmountPaid,
		AmountDue:     doc.AmountDue,
	}
	c.JSON(http.StatusOK, view)
}

type signRequest struct {
	SignerName    string `json:"signer_name" binding:"required"`
	AcceptedTerms bool   `json:"accepted_terms"`
}

// @Summary Sign Contract
// @Description Execute a contract via its access link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Access token"
// @Param signature body signRequest true "Signature"
// @Success 200 {object} map[string]interface{}
// @Router /p/{token}/sign [post]
func (h *PublicHandler) Sign(c *gin.Context) {
	doc, ok := h.resolve(c)
	if !ok {
		return
	}

	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signed, err := h.documentService.Sign(c.Request.Context(), doc, req.SignerName, req.AcceptedTerms, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      signed.Status,
		"signer_name": signed.SignerName,
		"signed_at":   signed.SignedAt,
	})
}

type declineRequest struct {
	Reason string `json:"reason"`
}

// @Summary Decline Contract
// @Description Reject a contract via its access link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} map[string]interface{}
// @Router /p/{token}/decline [post]
func (h *PublicHandler) Decline(c *gin.Context) {
	doc, ok := h.resolve(c)
	if !ok {
		return
	}

	var req declineRequest
	_ = c.ShouldBindJSON(&req)

	declined, err := h.documentService.Decline(c.Request.Context(), doc, req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      declined.Status,
		"declined_at": declined.DeclinedAt,
	})
}

// @Summary Create Payment Intent
// @Description Start a gateway-hosted payment for an invoice's outstanding balance
// @Tags Public
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} services.PaymentIntent
// @Router /p/{token}/payment_intent [post]
func (h *PublicHandler) PaymentIntent(c *gin.Context) {
	doc, ok := h.resolve(c)
	if !ok {
		return
	}

	intent, err := h.gateway.CreateIntent(c.Request.Context(), doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// resolve validates the path token and loads its document
func (h *PublicHandler) resolve(c *gin.Context) (*models.Document, bool) {
	doc, err := h.accessService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return doc, true
}
