package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kinshiphq/backend/internal/auth"
	"github.com/kinshiphq/backend/internal/cache"
	"github.com/kinshiphq/backend/internal/database"
	"github.com/kinshiphq/backend/internal/handlers"
	"github.com/kinshiphq/backend/internal/logger"
	"github.com/kinshiphq/backend/internal/metrics"
	"github.com/kinshiphq/backend/internal/middleware"
	"github.com/kinshiphq/backend/internal/notify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	log.Println("=== Kinship server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis (rate limiter state); non-fatal if absent
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		log.Printf("Warning: Redis unavailable, rate limiting disabled: %v", err)
	} else {
		defer redisClient.Close()
	}

	// Initialize metrics registry
	metrics.Initialize()

	// Initialize auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		log.Fatalf("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	// Initialize handlers
	notifier := notify.NewService(database.DB)
	h := handlers.NewHandlers(authService, notifier)

	// Setup Gin router
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"} // Configure properly for production
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "kinship-backend",
		})
	})

	// Prometheus endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.Use(h.AuthMiddleware())
			posts.POST("", h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetPostComments)
			posts.POST("/:id/rating", h.RatePost)
			posts.GET("/:id/rating", h.GetPostRating)
		}

		// Comment routes
		comments := api.Group("/comments")
		{
			comments.Use(h.AuthMiddleware())
			comments.PUT("/:id", h.UpdateComment)
			comments.DELETE("/:id", h.DeleteComment)
			comments.POST("/:id/rating", h.RateComment)
			comments.GET("/:id/rating", h.GetCommentRating)
		}

		// User routes
		users := api.Group("/users")
		{
			users.Use(h.AuthMiddleware())
			users.GET("/:id/comments", h.GetUserComments)
		}

		// Friend routes
		friends := api.Group("/friends")
		{
			friends.Use(h.AuthMiddleware())
			friends.GET("", h.GetFriends)
			friends.DELETE("/:id", h.RemoveFriend)
			friends.POST("/requests", h.SendFriendRequest)
			friends.GET("/requests", h.GetFriendRequests)
			friends.GET("/requests/outgoing", h.GetOutgoingFriendRequests)
			friends.POST("/requests/:id/accept", h.AcceptFriendRequest)
			friends.POST("/requests/:id/reject", h.RejectFriendRequest)
			friends.POST("/requests/:id/cancel", h.CancelFriendRequest)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(h.AuthMiddleware())
			notifications.GET("", h.GetNotifications)
			notifications.POST("/read", h.MarkNotificationsRead)
		}
	}

	// Server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Kinship backend starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
