package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/catalog"
	"github.com/jafarshop/catalogsync/internal/validator"
)

// HandlePopulate handles POST /v1/catalog/populate
func HandlePopulate(populator *catalog.Populator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.PopulateConfig
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		result, err := populator.PopulateFromImports(c.Request.Context(), req)
		if err != nil {
			logger.Error("Failed to run population", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleValidate handles GET /v1/catalog/validate
func HandleValidate(v *validator.Validator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizationID := c.Query("organizationId")
		if organizationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "organizationId is required"})
			return
		}

		report, err := v.ValidateAllData(c.Request.Context(), organizationID)
		if err != nil {
			logger.Error("Failed to run validation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if c.Query("format") == "text" {
			c.String(http.StatusOK, report.RenderText())
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
