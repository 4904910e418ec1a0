package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/watchlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		pricing := v1.Group("/pricing")
		{
			pricing.POST("/recommend", handler.RecommendPrice)
			pricing.POST("/batch", handler.RecommendBatch)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/stats", handler.CatalogStats)
			catalog.GET("/search", handler.SearchCatalog)
			catalog.POST("/ingest", handler.IngestCatalog)
			catalog.POST("/reconcile", handler.ReconcileCatalog)
		}
	}

	return router
}
