package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Jayme2002/docusave/internal/config"
	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/tasks"
)

// BuilderHandler handles the builder session lifecycle: token issuance,
// save events from the widget, and explicit commit/discard of the draft.
type BuilderHandler struct {
	cfg            *config.Config
	docuseal       docuseal.IDocusealClient
	builderService services.IBuilderService
	accountService services.IAccountService
	taskClient     IAsynqClient
}

// NewBuilderHandler creates a new BuilderHandler.
func NewBuilderHandler(
	cfg *config.Config,
	docusealClient docuseal.IDocusealClient,
	builderService services.IBuilderService,
	accountService services.IAccountService,
	taskClient IAsynqClient,
) *BuilderHandler {
	return &BuilderHandler{
		cfg:            cfg,
		docuseal:       docusealClient,
		builderService: builderService,
		accountService: accountService,
		taskClient:     taskClient,
	}
}

// GetBuilderToken handles POST /v1/builder/token.
// Issues a fresh single-session builder token; tokens are never cached.
func (h *BuilderHandler) GetBuilderToken(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	account, err := h.accountService.FindByID(c.Request.Context(), accountID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve account"})
		return
	}

	token, err := h.docuseal.IssueBuilderToken(c.Request.Context(), account.Email)
	if err != nil {
		var tie *docuseal.TokenIssuanceError
		if errors.As(err, &tie) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Builder token issuance failed"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue builder token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// HandleBuilderSave handles POST /v1/builder/save.
// The builder widget posts this when the user saves; the merged draft is
// held pending an explicit commit.
func (h *BuilderHandler) HandleBuilderSave(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	var event models.BuilderSaveEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid save event payload"})
		return
	}

	draft, err := h.builderService.HandleBuilderSave(c.Request.Context(), accountID, event)
	if err != nil {
		if errors.Is(err, services.ErrDraftSuperseded) {
			c.JSON(http.StatusConflict, gin.H{"error": "Draft superseded by a newer save"})
			return
		}
		var tfe *docuseal.TemplateFetchError
		if errors.As(err, &tfe) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch template detail"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process save event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// GetPendingDraft handles GET /v1/builder/draft.
func (h *BuilderHandler) GetPendingDraft(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	draft, exists := h.builderService.PendingDraft(accountID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending draft"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// CommitDraft handles POST /v1/builder/commit.
// Persists the pending draft as a template, then enqueues the archive task
// and the owner notification.
func (h *BuilderHandler) CommitDraft(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	tpl, err := h.builderService.Commit(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrNoPendingDraft) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No pending draft to commit"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save template"})
		return
	}

	ctx := c.Request.Context()

	// Archive the source PDF and build a thumbnail in the background.
	archivePayload, _ := json.Marshal(tasks.TemplateArchivePayload{TemplateID: tpl.ID.String()})
	archiveTask := asynq.NewTask(tasks.TypeTemplateArchive, archivePayload)
	if _, enqueueErr := h.taskClient.EnqueueContext(ctx, archiveTask, asynq.Queue("archive")); enqueueErr != nil {
		log.Printf("Failed to enqueue archive task for template %s: %v", tpl.ID.String(), enqueueErr)
	}

	// Owner notification, best-effort.
	if account, accErr := h.accountService.FindByID(ctx, accountID); accErr == nil {
		emailPayload, _ := json.Marshal(tasks.EmailTaskPayload{
			To:         account.Email,
			TemplateID: "template_saved",
			Data: map[string]interface{}{
				"template_name": tpl.Name,
			},
		})
		emailTask := asynq.NewTask(tasks.TypeEmailDelivery, emailPayload)
		if _, enqueueErr := h.taskClient.EnqueueContext(ctx, emailTask); enqueueErr != nil {
			log.Printf("Failed to enqueue template_saved email for account %s: %v", accountID.String(), enqueueErr)
		}
	} else {
		log.Printf("Could not resolve account %s for save notification: %v", accountID.String(), accErr)
	}

	c.JSON(http.StatusCreated, gin.H{"template": tpl})
}

// DiscardDraft handles POST /v1/builder/discard.
func (h *BuilderHandler) DiscardDraft(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	if err := h.builderService.Discard(accountID); err != nil {
		if errors.Is(err, services.ErrNoPendingDraft) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No pending draft to discard"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to discard draft"})
		return
	}

	c.Status(http.StatusNoContent)
}
