package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Jayme2002/docusave/internal/api/handlers"
	"github.com/Jayme2002/docusave/internal/api/middleware"
	"github.com/Jayme2002/docusave/internal/config"
	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers HERE
	docusealClient := docuseal.NewClient(cfg)
	templateService := services.NewTemplateService(db)
	accountService := services.NewAccountService(db)
	builderService := services.NewBuilderService(docusealClient, templateService)
	sendService := services.NewSendService(docusealClient, templateService, accountService)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	builderHandler := handlers.NewBuilderHandler(cfg, docusealClient, builderService, accountService, taskClient)
	templateHandler := handlers.NewTemplateHandler(templateService, docusealClient)
	sendHandler := handlers.NewSendHandler(sendService, accountService, taskClient)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Everything else requires an authenticated account.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			builder := authRequired.Group("/builder")
			{
				builder.POST("/token", builderHandler.GetBuilderToken)
				builder.POST("/save", builderHandler.HandleBuilderSave)
				builder.GET("/draft", builderHandler.GetPendingDraft)
				builder.POST("/commit", builderHandler.CommitDraft)
				builder.POST("/discard", builderHandler.DiscardDraft)
			}

			authRequired.GET("/templates", templateHandler.ListTemplates)
			authRequired.GET("/templates/:id", templateHandler.GetTemplate)
			authRequired.DELETE("/templates/:id", templateHandler.DeleteTemplate)
			authRequired.POST("/templates/:id/send", sendHandler.SendSignatureRequest)
		}
	}

	return r
}
