package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gift-api/config"
	"gift-api/handlers"
	"gift-api/middleware"
	"gift-api/routes"
	"gift-api/services"
	"gift-api/storage"
	"gift-api/storage/memory"
	"gift-api/storage/postgres"
	"gift-api/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	utils.SetupLogging()

	store, err := openStore()
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	accounts := services.NewAccountService(store)
	groups := services.NewGroupService(store)
	gifts := services.NewGiftService(store, accounts)
	invitations := services.NewInvitationService(store, accounts)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()
	router.Use(cors.New(corsConfig()))
	router.Use(requestLogger())
	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, store)
		v1.GET("/ws/groups/:id", wsHandler.HandleWS)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupUserRoutes(protected, store, accounts)
			routes.SetupGroupRoutes(protected, groups, gifts, wsHandler)
			routes.SetupInvitationRoutes(protected, invitations, accounts, groups)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("🚀 Server starting", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// openStore connects to PostgreSQL when DATABASE_URL is set and falls
// back to the in-memory store for local development.
func openStore() (storage.Store, error) {
	if os.Getenv("DATABASE_URL") == "" {
		slog.Warn("DATABASE_URL not set, using in-memory storage")
		return memory.New(), nil
	}

	db, err := config.InitDB()
	if err != nil {
		return nil, err
	}
	if err := config.RunMigrations(db); err != nil {
		return nil, err
	}

	slog.Info("✅ Database connected")
	return postgres.New(db), nil
}

func corsConfig() cors.Config {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	return cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
