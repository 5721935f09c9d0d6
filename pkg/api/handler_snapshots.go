package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSnapshot handles GET /api/v1/snapshots/:id: returns a point-in-time
// view previously linked from an outbound message. Expired or foreign
// snapshots read as not found.
func (s *Server) GetSnapshot(c *gin.Context) {
	snap, ok := s.snapshots.Get(tenantID(c), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found or expired"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
