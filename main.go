package main

import (
	"quizadmin/config"
	"quizadmin/handlers"
	"quizadmin/middleware"
	"quizadmin/models"
	"quizadmin/routes"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := config.Logger()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.SystemBootstrap{},
		&models.Category{},
		&models.Quiz{},
		&models.Notification{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize the notification feed hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	quizService := services.NewQuizService(db, categoryService)
	notificationService := services.NewNotificationService(db, redisClient, hub)
	pushService := services.NewPushService(userService, notificationService, cfg.PushGatewayURL)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	quizHandler := handlers.NewQuizHandler(quizService, notificationService, pushService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub)
	pushHandler := handlers.NewPushHandler(pushService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS(cfg.AllowedOrigin))

	// Setup routes
	routes.SetupRoutes(router, userHandler, categoryHandler, quizHandler,
		notificationHandler, pushHandler, hub, userService, cfg.JWTSecret)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
