package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venueflow/venueflow/pkg/store"
	"github.com/venueflow/venueflow/pkg/workflow"
)

// abortWithError maps service-layer errors to HTTP responses.
func abortWithError(c *gin.Context, err error) {
	var validErr *workflow.ValidationError
	if errors.As(err, &validErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validErr.Error()})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "resource already exists"})
		return
	}
	if errors.Is(err, store.ErrConcurrentModification) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "concurrent modification, retry"})
		return
	}

	slog.Error("Unexpected service error", "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
