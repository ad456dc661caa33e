package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"todo/internal/model"
	"todo/internal/service"
	"todo/internal/validation"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// bindJSON decodes the body into dst. On failure it writes the 400 response
// and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if verr, ok := validation.DecodeError(err); ok {
			c.JSON(http.StatusBadRequest, verr.Fields)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	return true
}

// renderError maps service errors onto status codes. Unknown errors are
// logged and reported without details.
func renderError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
