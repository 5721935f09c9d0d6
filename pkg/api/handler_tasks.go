package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListPendingTasks handles GET /api/v1/tasks/pending.
func (s *Server) ListPendingTasks(c *gin.Context) {
	tasks, err := s.queue.ListPending(c.Request.Context(), tenantID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// ApproveTask handles POST /api/v1/tasks/:id/approve.
func (s *Server) ApproveTask(c *gin.Context) {
	var req ApproveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.queue.Approve(c.Request.Context(), tenantID(c), c.Param("id"),
		req.EditedMessage, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectTask handles POST /api/v1/tasks/:id/reject.
func (s *Server) RejectTask(c *gin.Context) {
	var req RejectTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := s.queue.Reject(c.Request.Context(), tenantID(c), c.Param("id"), req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_status": status})
}

// CleanupTasks handles POST /api/v1/tasks/cleanup.
func (s *Server) CleanupTasks(c *gin.Context) {
	removed, err := s.queue.Cleanup(c.Request.Context(), tenantID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
