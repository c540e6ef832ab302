package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/logger"
	"people-search-platform/middleware"
	"people-search-platform/models"
	"people-search-platform/utils"
)

// QueryEmbedder is the slice of the AI client the search route needs.
type QueryEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedModel() string
}

// Retriever ranks persons for a query vector.
type Retriever interface {
	Retrieve(ctx context.Context, queryVector []float32, topK int) ([]models.PersonResult, error)
}

// ResponseAssembler maps ranked results to the wire shape, optionally with a
// synthesized answer.
type ResponseAssembler interface {
	Assemble(ctx context.Context, query string, results []models.PersonResult, synthesize bool) models.SearchResponse
}

func SetupSearchRoutes(router *gin.Engine, cfg *config.Config, embedder QueryEmbedder, retriever Retriever, assembler ResponseAssembler) {
	router.POST("/search", func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Q) == "" {
			utils.RespondWithBadRequest(c, "q must not be empty")
			return
		}

		topK := req.ClampedTopK()
		ctx := ai.WithCorrelationID(c.Request.Context(), middleware.GetRequestID(c))

		vectors, err := embedder.Embed(ctx, []string{req.Q})
		if err != nil {
			logger.Error("query embedding failed",
				"requestId", middleware.GetRequestID(c),
				"error", err.Error(),
			)
			utils.RespondWithInternalError(c, "failed to embed query")
			return
		}

		results, err := retriever.Retrieve(ctx, vectors[0], topK)
		if err != nil {
			logger.Error("retrieval failed",
				"requestId", middleware.GetRequestID(c),
				"topK", topK,
				"error", err.Error(),
			)
			utils.RespondWithInternalError(c, "search failed")
			return
		}

		resp := assembler.Assemble(ctx, req.Q, results, req.Synthesize)
		resp.QueryEmbeddingModel = embedder.EmbedModel()

		logger.Info("search served",
			"requestId", middleware.GetRequestID(c),
			"topK", topK,
			"results", len(resp.Results),
			"synthesized", resp.Answer != "",
		)
		c.JSON(http.StatusOK, resp)
	})
}
