package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/requestdata"
	"github.com/vibeline/vibeline-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	unreadOnly := c.Query("unread") == "true"
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := h.notificationService.ListForUser(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows, "unread_count": count})
}

// MarkRead enforces ownership here at the transport boundary; the service
// layer trusts the caller by contract.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	row, err := h.notificationService.Get(c.Request.Context(), notificationID)
	if err != nil {
		respondError(c, err)
		return
	}
	if row.RecipientID != userID {
		// Hide other users' notifications rather than confirming they exist.
		respondError(c, apierr.NewNotFound("notification_not_found", nil))
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
