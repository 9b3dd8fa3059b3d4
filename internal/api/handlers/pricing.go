package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// CalculatePriceRequest represents a price calculation request. When
// Platform is empty, prices are computed for every active platform.
type CalculatePriceRequest struct {
	BasePrice float64  `json:"basePrice" binding:"required"`
	Platform  string   `json:"platform"`
	CostPrice *float64 `json:"costPrice,omitempty"`
}

// OptimalBasePriceRequest represents an inverse margin-targeting request.
type OptimalBasePriceRequest struct {
	CostPrice    float64 `json:"costPrice" binding:"required"`
	TargetMargin float64 `json:"targetMargin"`
	Platform     string  `json:"platform" binding:"required"`
}

// HandleCalculatePrice handles POST /v1/pricing/calculate
func HandleCalculatePrice(engine *pricing.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CalculatePriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if req.Platform == "" {
			results, err := engine.CalculateAllPlatformPrices(req.BasePrice, req.CostPrice)
			if err != nil {
				c.JSON(pricingErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"results": results})
			return
		}

		result, err := engine.CalculatePlatformPrice(req.BasePrice, req.Platform, req.CostPrice)
		if err != nil {
			c.JSON(pricingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleOptimalBasePrice handles POST /v1/pricing/optimal-base
func HandleOptimalBasePrice(engine *pricing.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OptimalBasePriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		basePrice, err := engine.CalculateOptimalBasePrice(req.CostPrice, req.TargetMargin, req.Platform)
		if err != nil {
			c.JSON(pricingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"platform":     req.Platform,
			"costPrice":    req.CostPrice,
			"targetMargin": req.TargetMargin,
			"basePrice":    basePrice,
		})
	}
}

// HandleExportConfigs handles GET /v1/pricing/configs
func HandleExportConfigs(engine *pricing.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"configs": engine.ExportConfigs()})
	}
}

// HandleUpdateConfig handles PUT /v1/pricing/configs
func HandleUpdateConfig(engine *pricing.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cfg domain.PlatformFeeConfig
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := engine.UpdateConfig(cfg); err != nil {
			c.JSON(pricingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": cfg.Platform})
	}
}

// HandleImportConfigs handles POST /v1/pricing/configs/import
func HandleImportConfigs(engine *pricing.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Configs []domain.PlatformFeeConfig `json:"configs" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := engine.ImportConfigs(req.Configs); err != nil {
			c.JSON(pricingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		logger.Info("imported pricing configs", zap.Int("count", len(req.Configs)))
		c.JSON(http.StatusOK, gin.H{"imported": len(req.Configs)})
	}
}

func pricingErrorStatus(err error) int {
	var cfgErr *errors.ErrConfiguration
	var valErr *errors.ErrValidation
	switch {
	case stderrors.As(err, &cfgErr):
		return http.StatusNotFound
	case stderrors.As(err, &valErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
