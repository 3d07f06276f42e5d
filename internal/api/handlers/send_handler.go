package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/tasks"
	"github.com/Jayme2002/docusave/internal/utils"
)

// SendHandler handles dispatching signature requests for templates.
type SendHandler struct {
	sendService    services.ISendService
	accountService services.IAccountService
	taskClient     IAsynqClient
}

// NewSendHandler creates a new SendHandler.
func NewSendHandler(sendService services.ISendService, accountService services.IAccountService, taskClient IAsynqClient) *SendHandler {
	return &SendHandler{
		sendService:    sendService,
		accountService: accountService,
		taskClient:     taskClient,
	}
}

// SendRequestBody is the payload for POST /v1/templates/:id/send.
type SendRequestBody struct {
	Submitters []models.Submitter  `json:"submitters" binding:"required"`
	Message    models.EmailMessage `json:"message"`
}

// SendSignatureRequest handles POST /v1/templates/:id/send.
// Validation failures come back as 400 before any network call; a dispatch
// failure is 502 and is never retried here, since the request may already
// have been accepted remotely.
func (h *SendHandler) SendSignatureRequest(c *gin.Context) {
	accountID, ok := requesterAccountID(c)
	if !ok {
		return
	}

	templateID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID format"})
		return
	}

	var body SendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid send request payload"})
		return
	}

	submitters := models.SubmitterListFrom(body.Submitters)

	result, err := h.sendService.Send(c.Request.Context(), accountID, templateID, submitters, body.Message)
	if err != nil {
		var sve *models.SendValidationError
		var de *docuseal.DispatchError
		switch {
		case errors.As(err, &sve):
			c.JSON(http.StatusBadRequest, gin.H{"error": sve.Error(), "submitter_index": sve.Index})
		case errors.Is(err, services.ErrTemplateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		case errors.Is(err, services.ErrNotTemplateOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Template not owned by requester"})
		case errors.As(err, &de):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Signature request dispatch failed"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send signature request"})
		}
		return
	}

	// Owner notification, best-effort.
	if account, accErr := h.accountService.FindByID(c.Request.Context(), accountID); accErr == nil {
		emailPayload, _ := json.Marshal(tasks.EmailTaskPayload{
			To:         account.Email,
			TemplateID: "signature_request_sent",
			Data: map[string]interface{}{
				"template_name":   result.TemplateName,
				"recipient_count": result.SubmittersCount,
			},
		})
		emailTask := asynq.NewTask(tasks.TypeEmailDelivery, emailPayload)
		if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), emailTask); enqueueErr != nil {
			log.Printf("Failed to enqueue signature_request_sent email for account %s: %v", accountID.String(), enqueueErr)
		}
	} else {
		log.Printf("Could not resolve account %s for send notification: %v", accountID.String(), accErr)
	}

	c.JSON(http.StatusOK, gin.H{
		"submission_id":    result.SubmissionID,
		"submitters_count": result.SubmittersCount,
	})
}
