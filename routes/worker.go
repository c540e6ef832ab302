package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"people-search-platform/internal/config"
	"people-search-platform/internal/logger"
	"people-search-platform/internal/queue"
	"people-search-platform/middleware"
	"people-search-platform/models"
	"people-search-platform/utils"
)

// TaskEnqueuer is the slice of the asynq client the receiver uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// finalizeRequest reports a completed job back from an external pipeline.
type finalizeRequest struct {
	JobID   string         `json:"jobId"`
	Summary map[string]any `json:"summary,omitempty"`
}

// SetupWorkerRoutes mounts the signed webhook receiver. Every route rejects
// requests whose HMAC signature or timestamp fails verification.
func SetupWorkerRoutes(router *gin.Engine, cfg *config.Config, enqueuer TaskEnqueuer) {
	worker := router.Group("/worker")
	worker.Use(middleware.WebhookSignatureMiddleware(cfg.WorkerSigningSecret))

	worker.POST("/ingest", func(c *gin.Context) {
		var job models.IngestJob
		if err := c.ShouldBindJSON(&job); err != nil {
			utils.RespondWithBadRequest(c, "invalid job payload")
			return
		}
		if strings.TrimSpace(job.JobID) == "" {
			utils.RespondWithBadRequest(c, "jobId is required")
			return
		}
		if len(job.Files) == 0 {
			utils.RespondWithBadRequest(c, "files must not be empty")
			return
		}

		correlationID := c.GetHeader("x-correlation-id")
		task, err := queue.NewIngestProcessTask(job, correlationID)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to build ingestion task")
			return
		}

		info, err := enqueuer.EnqueueContext(c.Request.Context(), task)
		if err != nil {
			logger.Error("ingest enqueue failed",
				"jobId", job.JobID,
				"correlationId", correlationID,
				"error", err.Error(),
			)
			utils.RespondWithInternalError(c, "failed to queue ingestion job")
			return
		}

		logger.Info("ingest job queued",
			"jobId", job.JobID,
			"taskId", info.ID,
			"queue", info.Queue,
			"fileCount", len(job.Files),
			"correlationId", correlationID,
		)
		c.JSON(http.StatusAccepted, gin.H{"jobId": job.JobID, "status": "processing"})
	})

	worker.POST("/finalize", func(c *gin.Context) {
		var req finalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid finalize payload")
			return
		}
		if strings.TrimSpace(req.JobID) == "" {
			utils.RespondWithBadRequest(c, "jobId is required")
			return
		}

		logger.Info("ingest job finalized", "jobId", req.JobID, "summary", req.Summary)
		c.JSON(http.StatusOK, gin.H{"jobId": req.JobID, "status": "ok"})
	})
}
