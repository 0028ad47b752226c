package http

import (
	"github.com/gin-gonic/gin"

	"github.com/stylelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		extractions := v1.Group("/extractions")
		{
			extractions.POST("", handler.CreateExtraction)
			extractions.GET("/:id", handler.GetExtraction)
		}

		v1.GET("/taxonomy/attributes", handler.ListAttributes)
		v1.GET("/usage/summary", handler.UsageSummary)
	}

	return router
}
