package routes

import (
	"net/http"

	"quizadmin/config"
	"quizadmin/handlers"
	"quizadmin/middleware"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer for the REST API
	},
}

func SetupRoutes(
	router *gin.Engine,
	userHandler *handlers.UserHandler,
	categoryHandler *handlers.CategoryHandler,
	quizHandler *handlers.QuizHandler,
	notificationHandler *handlers.NotificationHandler,
	pushHandler *handlers.PushHandler,
	hub *services.Hub,
	userService *services.UserService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/sync", userHandler.SyncUser)
			auth.GET("/me", userHandler.GetProfile)
		}

		users := api.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/stats", userHandler.GetStats)
			users.PUT("/push-token", userHandler.UpdatePushToken)
			users.DELETE("/me", userHandler.DeleteAccount)
			users.PATCH("/:id/role", middleware.RequireAdmin(userService), userHandler.UpdateRole)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.POST("", categoryHandler.CreateCategory)
			categories.GET("/stats", categoryHandler.GetStats)
			categories.GET("/:slug", categoryHandler.GetCategoryBySlug)
			categories.PATCH("/id/:id", categoryHandler.UpdateCategory)
			categories.DELETE("/id/:id", categoryHandler.DeleteCategory)
			categories.POST("/bulk", categoryHandler.BulkCreateCategories)
		}

		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("/stats", quizHandler.GetStats)
			quizzes.GET("/search", quizHandler.SearchQuizzes)
			quizzes.GET("/:quizId", quizHandler.GetQuizByID)
			quizzes.PATCH("/id/:id", quizHandler.UpdateQuiz)
			quizzes.DELETE("/id/:id", quizHandler.DeleteQuiz)
			quizzes.POST("/bulk", quizHandler.BulkCreateQuizzes)
			quizzes.POST("/import", quizHandler.ImportQuizzes)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
			notifications.POST("", notificationHandler.CreateNotification)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
			notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			notifications.POST("/broadcast", middleware.RequireAdmin(userService), notificationHandler.BroadcastNotification)
		}

		push := api.Group("/push")
		push.Use(middleware.RequireAdmin(userService))
		{
			push.POST("/send", pushHandler.SendPush)
			push.POST("/broadcast", pushHandler.BroadcastPush)
			push.POST("/quiz-activity", pushHandler.NotifyQuizActivity)
			push.POST("/quiz-completed", pushHandler.NotifyQuizCompleted)
			push.POST("/achievement", pushHandler.NotifyAchievement)
			push.POST("/test", pushHandler.SendTestPush)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(userService))
		{
			admin.POST("/seed", quizHandler.SeedQuizzes)
			admin.POST("/clear", quizHandler.ClearAll)
			admin.GET("/feed", notificationHandler.FeedStatus)
		}
	}

	// WebSocket endpoint for the live notification feed. Browsers cannot set
	// headers on websocket requests, so the token rides in the query string.
	router.GET("/ws/notifications", func(c *gin.Context) {
		log := config.Logger()

		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		claims, err := middleware.ParseIdentityToken(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).WithField("user_id", claims.Subject).Error("WebSocket upgrade failed")
			return
		}

		log.WithField("user_id", claims.Subject).Debug("Notification feed connected")
		hub.RegisterClient(conn, claims.Subject)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
