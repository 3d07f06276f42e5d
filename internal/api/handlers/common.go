package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Jayme2002/docusave/internal/api/middleware"
	"github.com/Jayme2002/docusave/internal/utils"
)

// IAsynqClient defines the interface for the Asynq client methods used by handlers.
// This allows easier mocking than using the concrete asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// requesterAccountID extracts and parses the authenticated account ID set by
// the auth middleware. On failure it writes the error response and returns
// false; the caller should just return.
func requesterAccountID(c *gin.Context) (utils.SixID, bool) {
	idStr, exists := c.Get(middleware.ContextKeyAccountID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return utils.SixID{}, false
	}
	accountID, err := utils.ParseSixID(idStr.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid account identity"})
		return utils.SixID{}, false
	}
	return accountID, true
}
