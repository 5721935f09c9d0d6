// Package api is the HTTP surface: gin handlers over the workflow router,
// the HIL queue, and the per-tenant configuration store.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venueflow/venueflow/pkg/hil"
	"github.com/venueflow/venueflow/pkg/snapshot"
	"github.com/venueflow/venueflow/pkg/store"
	"github.com/venueflow/venueflow/pkg/workflow"
)

// Server carries the handler dependencies.
type Server struct {
	router    *workflow.Router
	queue     *hil.Queue
	store     store.TenantStore
	snapshots *snapshot.Store
}

// NewServer creates the API server.
func NewServer(router *workflow.Router, queue *hil.Queue, st store.TenantStore, snapshots *snapshot.Store) *Server {
	if router == nil {
		panic("NewServer: router must not be nil")
	}
	if queue == nil {
		panic("NewServer: queue must not be nil")
	}
	if st == nil {
		panic("NewServer: store must not be nil")
	}
	if snapshots == nil {
		panic("NewServer: snapshots must not be nil")
	}
	return &Server{router: router, queue: queue, store: st, snapshots: snapshots}
}

// Engine builds the gin engine with all routes registered. /health is the
// only public endpoint; everything else requires the tenant header.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), securityHeaders())

	engine.GET("/health", s.Health)

	v1 := engine.Group("/api/v1", requireTenant())
	{
		v1.POST("/messages", s.SendMessage)
		v1.POST("/conversations", s.StartConversation)

		v1.GET("/tasks/pending", s.ListPendingTasks)
		v1.POST("/tasks/:id/approve", s.ApproveTask)
		v1.POST("/tasks/:id/reject", s.RejectTask)
		v1.POST("/tasks/cleanup", s.CleanupTasks)

		v1.GET("/events/:id", s.GetEvent)
		v1.POST("/events/:id/cancel", s.CancelEvent)
		v1.POST("/deposit/pay", s.PayDeposit)
		v1.GET("/events/:id/progress", s.GetProgress)
		v1.GET("/events/:id/activity", s.GetActivity)

		v1.GET("/config/:section", s.GetConfigSection)
		v1.POST("/config/:section", s.SetConfigSection)
		v1.GET("/prompts/history/:key", s.GetPromptHistory)
		v1.POST("/prompts/revert/:key/:idx", s.RevertPrompt)

		v1.GET("/snapshots/:id", s.GetSnapshot)
	}
	return engine
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "venueflow"})
}
