package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/workflow"
)

// GetEvent handles GET /api/v1/events/:id.
func (s *Server) GetEvent(c *gin.Context) {
	event, err := s.store.GetEvent(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// CancelEvent handles POST /api/v1/events/:id/cancel. Requires the
// literal CANCEL confirmation; the record is archived, never deleted.
func (s *Server) CancelEvent(c *gin.Context) {
	var req CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := s.router.Cancel(c.Request.Context(), tenantID(c), c.Param("id"),
		req.Confirmation, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": event.Status, "event_id": event.EventID})
}

// PayDeposit handles POST /api/v1/deposit/pay: marks the deposit
// paid and runs the synthetic continuation turn.
func (s *Server) PayDeposit(c *gin.Context) {
	var req PayDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.router.PayDeposit(c.Request.Context(), tenantID(c), req.EventID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProgress handles GET /api/v1/events/:id/progress: the five-stage
// client-facing view of the internal step machine.
func (s *Server) GetProgress(c *gin.Context) {
	event, err := s.store.GetEvent(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflow.ProgressFor(event))
}

// GetActivity handles GET /api/v1/events/:id/activity with
// granularity=high|detailed and an optional limit.
func (s *Server) GetActivity(c *gin.Context) {
	event, err := s.store.GetEvent(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	detailed := c.DefaultQuery("granularity", "high") == "detailed"
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var entries []models.ActivityEntry
	for _, e := range event.Activity {
		if !detailed && e.Detailed {
			continue
		}
		entries = append(entries, e)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries, "count": len(entries)})
}
