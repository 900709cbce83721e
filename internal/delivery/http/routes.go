package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/feedpilot/backend/config"
	"github.com/feedpilot/backend/internal/infrastructure/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger, m))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/categories/map", handler.MapCategory)

		products := v1.Group("/products")
		{
			products.POST("/validate", handler.ValidateProduct)
			products.POST("/score", handler.ScoreProduct)
		}

		feeds := v1.Group("/feeds")
		{
			feeds.POST("/optimize", handler.OptimizeFeed)
			feeds.POST("/sync", handler.SyncFeed)
		}

		runs := v1.Group("/runs")
		{
			runs.GET("/:id", handler.GetRun)
			runs.GET("/:id/export", handler.ExportRun)
		}
	}

	return router
}
