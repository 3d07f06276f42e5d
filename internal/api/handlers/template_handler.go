package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/utils"
)

// TemplateHandler handles REST requests for committed templates.
type TemplateHandler struct {
	templateService services.ITemplateService
	docuseal        docuseal.IDocusealClient
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService services.ITemplateService, docusealClient docuseal.IDocusealClient) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		docuseal:        docusealClient,
	}
}

// ListTemplates handles GET /v1/templates.
// Returns the requester's templates, most recently created first.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	templates, err := h.templateService.List(c.Request.Context(), accountID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// GetTemplate handles GET /v1/templates/:id.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	templateID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID format"})
		return
	}

	tpl, err := h.templateService.FindByID(c.Request.Context(), templateID)
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve template"})
		return
	}
	if tpl.OwnerID != accountID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Template not owned by requester"})
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate handles DELETE /v1/templates/:id.
// Ownership is enforced by the store; a mismatched requester gets 403 and
// the record stays. After a local delete the external record is archived
// best-effort.
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	templateID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID format"})
		return
	}

	tpl, err := h.templateService.FindByID(c.Request.Context(), templateID)
	if err != nil && !errors.Is(err, services.ErrTemplateNotFound) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), templateID, accountID); err != nil {
		switch {
		case errors.Is(err, services.ErrTemplateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		case errors.Is(err, services.ErrNotTemplateOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Template not owned by requester"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		}
		return
	}

	if tpl != nil {
		if archErr := h.docuseal.ArchiveTemplate(c.Request.Context(), tpl.ExternalID); archErr != nil {
			// Local delete already happened; the external record lingering
			// is not worth failing the request over.
			log.Printf("Failed to archive external template %s after delete: %v", tpl.ExternalID, archErr)
		}
	}

	c.Status(http.StatusNoContent)
}
