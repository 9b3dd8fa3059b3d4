package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/jobs"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// HandleBatchStatus handles GET /v1/jobs/:batchId/status
func HandleBatchStatus(tracker *jobs.Tracker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		batchID := c.Param("batchId")
		if batchID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "batchId is required"})
			return
		}

		status, err := tracker.BatchStatus(c.Request.Context(), batchID)
		if err != nil {
			var notFound *errors.ErrNotFound
			if stderrors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
				return
			}
			logger.Error("Failed to derive batch status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

// HandleQueueSnapshot handles GET /v1/jobs/queue
func HandleQueueSnapshot(tracker *jobs.Tracker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := tracker.QueueSnapshot(c.Request.Context())
		if err != nil {
			logger.Error("Failed to read queue snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}
