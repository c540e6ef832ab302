package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"people-search-platform/internal/graph"
	"people-search-platform/internal/logger"
	"people-search-platform/middleware"
	"people-search-platform/models"
	"people-search-platform/utils"
)

// GraphReader is the read-only projection of the graph store the lookup
// routes use.
type GraphReader interface {
	PersonByID(ctx context.Context, id string) (*models.Person, error)
	DocumentsByStatus(ctx context.Context, status string) ([]models.Document, error)
}

func SetupLookupRoutes(router *gin.Engine, store GraphReader) {
	router.GET("/people/:id", func(c *gin.Context) {
		id := c.Param("id")

		person, err := store.PersonByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, graph.ErrPersonNotFound) {
				utils.RespondWithNotFound(c, "person not found")
				return
			}
			logger.Error("person lookup failed",
				"requestId", middleware.GetRequestID(c),
				"personId", id,
				"error", err.Error(),
			)
			utils.RespondWithInternalError(c, "lookup failed")
			return
		}

		c.JSON(http.StatusOK, person)
	})

	router.GET("/documents", func(c *gin.Context) {
		status := c.Query("status")

		docs, err := store.DocumentsByStatus(c.Request.Context(), status)
		if err != nil {
			logger.Error("document listing failed",
				"requestId", middleware.GetRequestID(c),
				"status", status,
				"error", err.Error(),
			)
			utils.RespondWithInternalError(c, "listing failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
	})
}
