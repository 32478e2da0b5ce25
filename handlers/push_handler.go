package handlers

import (
	"net/http"

	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	pushService *services.PushService
}

func NewPushHandler(pushService *services.PushService) *PushHandler {
	return &PushHandler{pushService: pushService}
}

func (h *PushHandler) SendPush(c *gin.Context) {
	var req struct {
		UserID    string                 `json:"user_id" binding:"required"`
		Title     string                 `json:"title" binding:"required"`
		Body      string                 `json:"body" binding:"required"`
		Data      map[string]interface{} `json:"data"`
		ChannelID string                 `json:"channel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.Send(c.Request.Context(), req.UserID, req.Title, req.Body, req.Data, req.ChannelID)
	c.JSON(http.StatusOK, result)
}

func (h *PushHandler) BroadcastPush(c *gin.Context) {
	var req struct {
		UserIDs   []string               `json:"user_ids" binding:"required,min=1"`
		Title     string                 `json:"title" binding:"required"`
		Body      string                 `json:"body" binding:"required"`
		Data      map[string]interface{} `json:"data"`
		ChannelID string                 `json:"channel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.Broadcast(c.Request.Context(), req.UserIDs, req.Title, req.Body, req.Data, req.ChannelID)
	c.JSON(http.StatusOK, result)
}

func (h *PushHandler) NotifyQuizActivity(c *gin.Context) {
	var req struct {
		QuizID    string `json:"quiz_id" binding:"required"`
		Title     string `json:"title" binding:"required"`
		Body      string `json:"body" binding:"required"`
		Screen    string `json:"screen"`
		ChannelID string `json:"channel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.NotifyQuizActivity(c.Request.Context(), req.QuizID, req.Title, req.Body, req.Screen, req.ChannelID)
	c.JSON(http.StatusOK, result)
}

func (h *PushHandler) NotifyQuizCompleted(c *gin.Context) {
	var req struct {
		UserID         string `json:"user_id" binding:"required"`
		QuizTitle      string `json:"quiz_title" binding:"required"`
		Score          int    `json:"score"`
		TotalQuestions int    `json:"total_questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.NotifyQuizCompleted(c.Request.Context(), req.UserID, req.QuizTitle, req.Score, req.TotalQuestions)
	c.JSON(http.StatusOK, result)
}

func (h *PushHandler) NotifyAchievement(c *gin.Context) {
	var req struct {
		UserID      string `json:"user_id" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.NotifyAchievement(c.Request.Context(), req.UserID, req.Title, req.Description)
	c.JSON(http.StatusOK, result)
}

func (h *PushHandler) SendTestPush(c *gin.Context) {
	var req struct {
		PushToken string `json:"push_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pushService.SendTest(c.Request.Context(), req.PushToken)
	c.JSON(http.StatusOK, result)
}
