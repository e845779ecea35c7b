package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vibeline/vibeline-backend/internal/requestdata"
	"github.com/vibeline/vibeline-backend/internal/services"
	"github.com/vibeline/vibeline-backend/internal/types"
)

type ConnectionHandler struct {
	connectionService services.ConnectionService
}

func NewConnectionHandler(connectionService services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

func (h *ConnectionHandler) Request(c *gin.Context) {
	var body struct {
		RecipientID string `json:"recipient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipientID, err := uuid.Parse(body.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient_id"})
		return
	}
	requesterID := requestdata.UserID(c.Request.Context())
	conn, err := h.connectionService.RequestConnection(c.Request.Context(), requesterID, recipientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"connection": conn})
}

func (h *ConnectionHandler) Respond(c *gin.Context) {
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection id"})
		return
	}
	var body struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	responderID := requestdata.UserID(c.Request.Context())
	conn, err := h.connectionService.RespondToConnection(c.Request.Context(), connectionID, responderID, types.ConnectionStatus(strings.ToLower(body.Decision)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": conn})
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	var status *types.ConnectionStatus
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		st := types.ConnectionStatus(raw)
		status = &st
	}
	conns, err := h.connectionService.ListConnections(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}
