package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venueflow/venueflow/pkg/models"
)

// SendMessage handles POST /api/v1/messages: one inbound client message
// through the full pipeline.
func (s *Server) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.router.HandleMessage(c.Request.Context(), &models.InboundMessage{
		TenantID:   tenantID(c),
		ClientID:   req.ClientEmail,
		ThreadID:   req.ThreadID,
		Subject:    req.Subject,
		Body:       req.Body,
		ReceivedAt: time.Now().UTC(),
		Extras: models.MessageExtras{
			EventID:         req.Extras.EventID,
			SkipDevChoice:   req.Extras.SkipDevChoice,
			DepositJustPaid: req.Extras.DepositJustPaid,
		},
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartConversation handles POST /api/v1/conversations: the first message
// of a new thread, with a server-generated thread id.
func (s *Server) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.router.HandleMessage(c.Request.Context(), &models.InboundMessage{
		TenantID:   tenantID(c),
		ClientID:   req.ClientEmail,
		ThreadID:   uuid.New().String(),
		Subject:    req.Subject,
		Body:       req.EmailBody,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
