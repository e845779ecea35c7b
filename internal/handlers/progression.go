package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vibeline/vibeline-backend/internal/requestdata"
	"github.com/vibeline/vibeline-backend/internal/services"
)

type ProgressionHandler struct {
	progressionService services.ProgressionService
}

func NewProgressionHandler(progressionService services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progressionService: progressionService}
}

func (h *ProgressionHandler) CompleteQuest(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest id"})
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	rec, err := h.progressionService.CompleteQuest(c.Request.Context(), userID, questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (h *ProgressionHandler) CompleteModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module id"})
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	rec, err := h.progressionService.CompleteModule(c.Request.Context(), userID, moduleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (h *ProgressionHandler) IncrementAchievement(c *gin.Context) {
	achievementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid achievement id"})
		return
	}
	var body struct {
		Amount int `json:"amount"`
	}
	// Body is optional; a missing amount means a single step.
	if err := c.ShouldBindJSON(&body); err != nil || body.Amount == 0 {
		body.Amount = 1
	}
	userID := requestdata.UserID(c.Request.Context())
	rec, err := h.progressionService.IncrementAchievementProgress(c.Request.Context(), userID, achievementID, body.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (h *ProgressionHandler) Get(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	prog, err := h.progressionService.GetProgression(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progression": prog})
}
