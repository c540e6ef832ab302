package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable error codes.
const (
	CodeInvalidRequest         = "invalid_request"
	CodeUnauthorized           = "unauthorized"
	CodeNotFound               = "not_found"
	CodeInternalError          = "internal_error"
	CodeTemporarilyUnavailable = "temporarily_unavailable"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// RespondWithBadRequest sends a 400 with the validation error class
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, message)
}

// RespondWithUnauthorized sends a 401 Unauthorized error
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, CodeNotFound, message)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, CodeInternalError, message)
}

// RespondWithTemporarilyUnavailable sends a 502 for downstream worker
// rejection; the caller may legitimately retry the whole call.
func RespondWithTemporarilyUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadGateway, CodeTemporarilyUnavailable, message)
}
