package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/api/handlers"
	"github.com/jafarshop/catalogsync/internal/catalog"
	"github.com/jafarshop/catalogsync/internal/config"
	"github.com/jafarshop/catalogsync/internal/jobs"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/internal/validator"
)

// Deps bundles the services exposed over HTTP.
type Deps struct {
	Populator *catalog.Populator
	Validator *validator.Validator
	Pricing   *pricing.Engine
	Tracker   *jobs.Tracker
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		catalogRoutes := v1.Group("/catalog")
		{
			catalogRoutes.POST("/populate", handlers.HandlePopulate(deps.Populator, logger))
			catalogRoutes.GET("/validate", handlers.HandleValidate(deps.Validator, logger))
		}

		pricingRoutes := v1.Group("/pricing")
		{
			pricingRoutes.POST("/calculate", handlers.HandleCalculatePrice(deps.Pricing, logger))
			pricingRoutes.POST("/optimal-base", handlers.HandleOptimalBasePrice(deps.Pricing, logger))
			pricingRoutes.GET("/configs", handlers.HandleExportConfigs(deps.Pricing, logger))
			pricingRoutes.PUT("/configs", handlers.HandleUpdateConfig(deps.Pricing, logger))
			pricingRoutes.POST("/configs/import", handlers.HandleImportConfigs(deps.Pricing, logger))
		}

		jobRoutes := v1.Group("/jobs")
		{
			jobRoutes.GET("/queue", handlers.HandleQueueSnapshot(deps.Tracker, logger))
			jobRoutes.GET("/:batchId/status", handlers.HandleBatchStatus(deps.Tracker, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
