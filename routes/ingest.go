package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/webhook"
	"people-search-platform/middleware"
	"people-search-platform/models"
	"people-search-platform/utils"
)

// JobDispatcher hands a validated manifest to the ingestion worker.
type JobDispatcher interface {
	Dispatch(ctx context.Context, uploadSessionID, s3Prefix string, files []models.IngestFile) (models.IngestStartResponse, error)
}

func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, dispatcher JobDispatcher) {
	router.POST("/ingest/start", func(c *gin.Context) {
		var req models.IngestStartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body")
			return
		}
		if msg := validateIngestStart(req, cfg.IngestMaxFiles); msg != "" {
			utils.RespondWithBadRequest(c, msg)
			return
		}

		ctx := ai.WithCorrelationID(c.Request.Context(), middleware.GetRequestID(c))

		result, err := dispatcher.Dispatch(ctx, req.UploadSessionID, req.S3Prefix, req.Files)
		if err != nil {
			if errors.Is(err, webhook.ErrWorkerUnavailable) {
				utils.RespondWithTemporarilyUnavailable(c, "ingestion worker rejected the job, retry later")
				return
			}
			utils.RespondWithInternalError(c, "failed to dispatch ingestion job")
			return
		}

		c.JSON(http.StatusAccepted, result)
	})
}

func validateIngestStart(req models.IngestStartRequest, maxFiles int) string {
	if strings.TrimSpace(req.UploadSessionID) == "" {
		return "uploadSessionId is required"
	}
	if !strings.HasPrefix(req.S3Prefix, "anon/") || !strings.HasSuffix(req.S3Prefix, "/") {
		return "s3Prefix must start with 'anon/' and end with '/'"
	}
	if len(req.Files) == 0 {
		return "files must not be empty"
	}
	if len(req.Files) > maxFiles {
		return fmt.Sprintf("too many files: %d exceeds the limit of %d", len(req.Files), maxFiles)
	}
	for i, f := range req.Files {
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Sprintf("files[%d].path is required", i)
		}
		if f.SHA256 == "" {
			return fmt.Sprintf("files[%d].sha256 is required", i)
		}
	}
	return ""
}
