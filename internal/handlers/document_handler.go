package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/middleware"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/services"
	"github.com/draftsign/draftsign-api/internal/storage"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	exportService   *services.ExportService
	artifacts       storage.Artifacts
}

func NewDocumentHandler(documentService *services.DocumentService, exportService *services.ExportService, artifacts storage.Artifacts) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		exportService:   exportService,
		artifacts:       artifacts,
	}
}

// @Summary List Documents
// @Description Get a paginated list of the tenant's documents
// @Tags Documents
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param type query string false "Filter by type (contract|invoice)"
// @Param status query string false "Filter by status"
// @Param status_in query string false "Comma-separated status filter"
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) Index(c *gin.Context) {
	query := &repository.DocumentQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Status = c.Query("status")
	query.Type = models.DocumentType(c.Query("type"))
	if statusIn := c.Query("status_in"); statusIn != "" {
		query.Filters["status_in"] = statusIn
	}
	query.TenantID = middleware.GetTenantID(c)

	docs, total, err := h.documentService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range docs {
		responses = append(responses, docs[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Document
// @Description Get a document with sections, line items and payments
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) Show(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc.ToResponse())
}

type createDocumentRequest struct {
	TemplateID   uint              `json:"template_id" binding:"required"`
	ClientID     uint              `json:"client_id" binding:"required"`
	Title        string            `json:"title"`
	DueDate      *time.Time        `json:"due_date"`
	TaxRate      float64           `json:"tax_rate"`
	DiscountRate float64           `json:"discount_rate"`
	LineItems    []models.LineItem `json:"line_items"`
}

// @Summary Create Document
// @Description Clone a template into a new draft document
// @Tags Documents
// @Accept json
// @Produce json
// @Param document body createDocumentRequest true "Document"
// @Success 201 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.documentService.CreateFromTemplate(c.Request.Context(), services.CreateDocumentInput{
		TenantID:     middleware.GetTenantID(c),
		TemplateID:   req.TemplateID,
		ClientID:     req.ClientID,
		Title:        req.Title,
		DueDate:      req.DueDate,
		TaxRate:      req.TaxRate,
		DiscountRate: req.DiscountRate,
		LineItems:    req.LineItems,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc.ToResponse())
}

// @Summary Update Draft
// @Description Update a draft document's metadata
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id} [patch]
func (h *DocumentHandler) UpdateDraft(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		Title         *string    `json:"title"`
		ClickwrapText *string    `json:"clickwrap_text"`
		DueDate       *time.Time `json:"due_date"`
		TaxRate       *float64   `json:"tax_rate"`
		DiscountRate  *float64   `json:"discount_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.documentService.UpdateDraft(c.Request.Context(), doc.ID, services.DraftPatch{
		Title:         req.Title,
		ClickwrapText: req.ClickwrapText,
		DueDate:       req.DueDate,
		TaxRate:       req.TaxRate,
		DiscountRate:  req.DiscountRate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.ToResponse())
}

// @Summary Replace Line Items
// @Description Replace a draft invoice's line items and recompute totals
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id}/line_items [put]
func (h *DocumentHandler) UpdateLineItems(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		LineItems []models.LineItem `json:"line_items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.documentService.UpdateLineItems(c.Request.Context(), doc.ID, req.LineItems)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.ToResponse())
}

// @Summary Insert Section
// @Description Insert an empty section after the given section (or at the end)
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/sections [post]
func (h *DocumentHandler) InsertSection(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		AfterID string             `json:"after_id"`
		Type    models.SectionType `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secs, err := h.documentService.InsertSection(c.Request.Context(), doc.ID, req.AfterID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Delete Section
// @Description Remove a section (the last remaining section cannot be deleted)
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Param section_id path string true "Section ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/sections/{section_id} [delete]
func (h *DocumentHandler) DeleteSection(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	secs, err := h.documentService.DeleteSection(c.Request.Context(), doc.ID, c.Param("section_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Move Section
// @Description Move a section to a new position
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param section_id path string true "Section ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/sections/{section_id}/move [put]
func (h *DocumentHandler) MoveSection(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		NewIndex int `json:"new_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secs, err := h.documentService.MoveSection(c.Request.Context(), doc.ID, c.Param("section_id"), req.NewIndex)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Change Section Type
// @Description Convert a section to another type, resetting its content
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param section_id path string true "Section ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/sections/{section_id}/type [put]
func (h *DocumentHandler) ChangeSectionType(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		Type models.SectionType `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secs, err := h.documentService.ChangeSectionType(c.Request.Context(), doc.ID, c.Param("section_id"), req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Update Section Content
// @Description Replace a section's content (must match the section's type)
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param section_id path string true "Section ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/sections/{section_id}/content [put]
func (h *DocumentHandler) UpdateSectionContent(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		Content models.SectionContent `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secs, err := h.documentService.UpdateSectionContent(c.Request.Context(), doc.ID, c.Param("section_id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Undo Section Edit
// @Description Reverse the most recent section edit on a draft
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/undo [post]
func (h *DocumentHandler) Undo(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	secs, err := h.documentService.Undo(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Redo Section Edit
// @Description Re-apply the most recently undone section edit
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/redo [post]
func (h *DocumentHandler) Redo(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	secs, err := h.documentService.Redo(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}

// @Summary Preview Document
// @Description Get the document's sections with merge fields resolved
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	secs, warnings, err := h.documentService.MergeFieldPreview(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sections":          secs,
		"unresolved_fields": warnings,
	})
}

// @Summary Document Events
// @Description Get the document's append-only audit trail
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /documents/{id}/events [get]
func (h *DocumentHandler) Events(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	events, err := h.documentService.ListEvents(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// @Summary Send Document
// @Description Move a draft to sent, issue the access link and queue delivery
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id}/send [post]
func (h *DocumentHandler) Send(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	sent, err := h.documentService.Send(c.Request.Context(), doc.ID, &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sent.ToResponse())
}

// @Summary Resend Link
// @Description Issue a fresh access link, invalidating the previous one
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id}/resend_link [post]
func (h *DocumentHandler) ResendLink(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	updated, err := h.documentService.ResendLink(c.Request.Context(), doc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.ToResponse())
}

// @Summary Cancel Document
// @Description Withdraw a document and revoke its public link
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} models.DocumentResponse
// @Security BearerAuth
// @Router /documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	cancelled, err := h.documentService.Cancel(c.Request.Context(), doc.ID, &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled.ToResponse())
}

// @Summary Download Artifact
// @Description Download the rendered PDF snapshot of the document
// @Tags Documents
// @Produce application/pdf
// @Param id path int true "Document ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/{id}/artifact [get]
func (h *DocumentHandler) DownloadArtifact(c *gin.Context) {
	doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}
	if doc.ArtifactPath == nil || *doc.ArtifactPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "document has not been rendered yet"})
		return
	}

	reader, size, err := h.artifacts.Get(c.Request.Context(), *doc.ArtifactPath)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	filename := fmt.Sprintf("%s_%d.pdf", doc.Type, doc.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, size, storage.ContentTypePDF, reader, nil)
}

// @Summary Export Invoices
// @Description Download an invoice aging workbook for the tenant
// @Tags Documents
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/export/invoices [get]
func (h *DocumentHandler) ExportInvoices(c *gin.Context) {
	data, filename, err := h.exportService.ExportInvoicesXLSX(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, storage.ContentTypeXLSX, data)
}

// ownedDocument loads the path document and enforces tenant ownership
func (h *DocumentHandler) ownedDocument(c *gin.Context) (*models.Document, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return nil, false
	}

	doc, err := h.documentService.FindByIDWithDetails(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if doc.TenantID != middleware.GetTenantID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrNotFound.Error()})
		return nil, false
	}
	return doc, true
}
