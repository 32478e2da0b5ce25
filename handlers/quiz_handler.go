package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"quizadmin/config"
	"quizadmin/middleware"
	"quizadmin/models"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService         *services.QuizService
	notificationService *services.NotificationService
	pushService         *services.PushService
}

func NewQuizHandler(quizService *services.QuizService, notificationService *services.NotificationService, pushService *services.PushService) *QuizHandler {
	return &QuizHandler{
		quizService:         quizService,
		notificationService: notificationService,
		pushService:         pushService,
	}
}

// notifyActor writes an in-app notification for the admin performing the
// mutation. The mutation already succeeded, so a ledger failure is logged and
// swallowed rather than failing the request.
func (h *QuizHandler) notifyActor(c *gin.Context, title, message, notificationType string, quizID *string) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return
	}
	if _, err := h.notificationService.Create(claims.Subject, title, message, notificationType, quizID); err != nil {
		config.Logger().WithError(err).Warn("Failed to record quiz mutation notification")
	}
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		quizzes, err := h.quizService.ListByCategory(category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, quizzes)
		return
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		quizzes, err := h.quizService.ListByDifficulty(difficulty)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, quizzes)
		return
	}

	quizzes, err := h.quizService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) GetQuizByID(c *gin.Context) {
	quiz, err := h.quizService.GetByQuizID(c.Param("quizId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if quiz == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) SearchQuizzes(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term required"})
		return
	}

	quizzes, err := h.quizService.Search(term)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) GetStats(c *gin.Context) {
	stats, err := h.quizService.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.QuizPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.Create(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.notifyActor(c, "Quiz Created",
		fmt.Sprintf("%q has been created successfully", quiz.Title),
		models.NotificationTypeQuizAdded, &quiz.QuizID)

	c.JSON(http.StatusCreated, quiz)
}

func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.Update(uint(id), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.notifyActor(c, "Quiz Updated",
		fmt.Sprintf("%q has been updated successfully", quiz.Title),
		models.NotificationTypeQuizUpdated, &quiz.QuizID)

	// Tell push-enabled mobile users the quiz changed. Best effort: a push
	// failure never rolls back the update.
	result := h.pushService.NotifyQuizActivity(c.Request.Context(), quiz.QuizID,
		"Quiz updated",
		fmt.Sprintf("%q was just updated on the admin dashboard.", quiz.Title), "", "")
	if !result.Success {
		config.Logger().WithField("quiz_id", quiz.QuizID).
			WithField("error", result.Error).Warn("Quiz update push broadcast failed")
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	quiz, err := h.quizService.Delete(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyActor(c, "Quiz Deleted",
		fmt.Sprintf("%q has been deleted successfully", quiz.Title),
		models.NotificationTypeQuizDeleted, nil)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *QuizHandler) BulkCreateQuizzes(c *gin.Context) {
	var payloads []services.QuizPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format. Expected an array of quizzes."})
		return
	}

	result, err := h.quizService.BulkCreate(payloads)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportQuizzes is the bulk load used by the dashboard's file-upload flow:
// referenced categories are materialized before the quizzes are inserted.
func (h *QuizHandler) ImportQuizzes(c *gin.Context) {
	var payloads []services.QuizPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format. Expected an array of quizzes."})
		return
	}

	result, err := h.quizService.BulkCreateWithCategories(payloads)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyActor(c, "Quizzes Imported",
		fmt.Sprintf("Successfully imported %d quizzes and %d categories", result.QuizCount, result.CategoryCount),
		models.NotificationTypeQuizAdded, nil)

	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) SeedQuizzes(c *gin.Context) {
	var payloads []services.QuizPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format. Expected an array of quizzes."})
		return
	}

	result, err := h.quizService.Seed(payloads)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) ClearAll(c *gin.Context) {
	result, err := h.quizService.ClearAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
