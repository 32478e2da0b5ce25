package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"quizadmin/middleware"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	hub                 *services.Hub
}

func NewNotificationHandler(notificationService *services.NotificationService, hub *services.Hub) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, hub: hub}
}

// Every read-state transition resolves the recipient from the caller's
// verified claims; no endpoint trusts a caller-supplied recipient id.

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notifications, err := h.notificationService.ListForUser(claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.notificationService.UnreadCount(claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CreateNotification writes a notification for the caller themselves; the
// dashboard uses it to record its own actions.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Title   string  `json:"title" binding:"required"`
		Message string  `json:"message" binding:"required"`
		Type    string  `json:"type" binding:"required"`
		QuizID  *string `json:"quiz_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.notificationService.Create(claims.Subject, req.Title, req.Message, req.Type, req.QuizID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.notificationService.MarkRead(uint(id), claims.Subject); err != nil {
		if errors.Is(err, services.ErrNotOwned) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.notificationService.MarkAllRead(claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.notificationService.Delete(uint(id), claims.Subject); err != nil {
		if errors.Is(err, services.ErrNotOwned) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BroadcastNotification inserts one in-app notification per recipient (admin
// feature; no push involved).
func (h *NotificationHandler) BroadcastNotification(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required,min=1"`
		Title   string   `json:"title" binding:"required"`
		Message string   `json:"message" binding:"required"`
		Type    string   `json:"type" binding:"required"`
		QuizID  *string  `json:"quiz_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.notificationService.Broadcast(req.UserIDs, req.Title, req.Message, req.Type, req.QuizID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Every open dashboard shows a broadcast as a toast, on top of the
	// per-recipient notification events.
	if h.hub != nil {
		h.hub.BroadcastAll("announcement", gin.H{"title": req.Title, "message": req.Message})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// FeedStatus reports which users currently hold open feed connections.
func (h *NotificationHandler) FeedStatus(c *gin.Context) {
	var users []string
	if h.hub != nil {
		users = h.hub.ConnectedUsers()
	}
	c.JSON(http.StatusOK, gin.H{"connected_users": users, "count": len(users)})
}
