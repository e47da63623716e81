package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/middleware"
	"github.com/draftsign/draftsign-api/internal/models"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/services"
)

type TemplateHandler struct {
	templateService *services.TemplateService
}

func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// @Summary List Templates
// @Description Get a paginated list of the tenant's templates
// @Tags Templates
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param doc_type query string false "Filter by document type (contract|invoice)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /templates [get]
func (h *TemplateHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	if docType := c.Query("doc_type"); docType != "" {
		query.Filters["doc_type"] = docType
	}

	templates, total, err := h.templateService.List(c.Request.Context(), middleware.GetTenantID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Template
// @Description Get a template with its ordered sections
// @Tags Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} models.Template
// @Security BearerAuth
// @Router /templates/{id} [get]
func (h *TemplateHandler) Show(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	usage, err := h.templateService.UsageCount(c.Request.Context(), tmpl.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tmpl, "document_count": usage})
}

type templateRequest struct {
	Name          string              `json:"name" binding:"required"`
	DocType       models.DocumentType `json:"doc_type" binding:"required"`
	ClickwrapText string              `json:"clickwrap_text"`
	Active        *bool               `json:"active"`
	Sections      []models.Section    `json:"sections"`
}

// @Summary Create Template
// @Description Create a template with an initial section list
// @Tags Templates
// @Accept json
// @Produce json
// @Param template body templateRequest true "Template"
// @Success 201 {object} models.Template
// @Security BearerAuth
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl := &models.Template{
		TenantID:      middleware.GetTenantID(c),
		Name:          strings.TrimSpace(req.Name),
		DocType:       req.DocType,
		ClickwrapText: req.ClickwrapText,
		Active:        true,
		Sections:      req.Sections,
	}
	if req.Active != nil {
		tmpl.Active = *req.Active
	}

	if err := h.templateService.Create(c.Request.Context(), tmpl); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// @Summary Update Template
// @Description Update template metadata (name, clickwrap text, active flag)
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} models.Template
// @Security BearerAuth
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	var req struct {
		Name          *string `json:"name"`
		ClickwrapText *string `json:"clickwrap_text"`
		Active        *bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		tmpl.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClickwrapText != nil {
		tmpl.ClickwrapText = *req.ClickwrapText
	}
	if req.Active != nil {
		tmpl.Active = *req.Active
	}

	if err := h.templateService.Update(c.Request.Context(), tmpl); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// @Summary Replace Template Sections
// @Description Replace the template's section list in one operation
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /templates/{id}/sections [put]
func (h *TemplateHandler) ReplaceSections(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	var req struct {
		Sections []models.Section `json:"sections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.templateService.ReplaceSections(c.Request.Context(), tmpl.ID, req.Sections); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.templateService.FindByID(c.Request.Context(), tmpl.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete Template
// @Description Soft-delete a template. Documents already cloned from it are unaffected.
// @Tags Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), tmpl.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}

// ownedTemplate loads the path template and enforces tenant ownership
func (h *TemplateHandler) ownedTemplate(c *gin.Context) (*models.Template, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return nil, false
	}

	tmpl, err := h.templateService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if tmpl.TenantID != middleware.GetTenantID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrNotFound.Error()})
		return nil, false
	}
	return tmpl, true
}
