package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/BrightonDube/bizpilot-session/internal/config"
	"github.com/BrightonDube/bizpilot-session/internal/repository/postgres"
	"github.com/BrightonDube/bizpilot-session/internal/repository/redis"
	"github.com/BrightonDube/bizpilot-session/internal/service/cleanup"
	"github.com/BrightonDube/bizpilot-session/internal/service/session"
	transportHttp "github.com/BrightonDube/bizpilot-session/internal/transport/http"
	"github.com/BrightonDube/bizpilot-session/internal/transport/http/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	db, err := postgres.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	if err := redis.InitRedis(); err != nil {
		log.Printf("Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var cache session.CacheRepository
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		cache = redis.NewRedisCache(redis.RedisClient)
	}

	authService := session.NewAuthService(sessionRepo, cache)

	cleanupWorker := cleanup.NewWorker(sessionRepo)
	cleanupWorker.Start()
	defer cleanupWorker.Stop()

	authHandler := transportHttp.NewAuthHandler(userRepo, authService)
	oauthHandler := transportHttp.NewOAuthHandler(userRepo, authService, &cfg.OAuthConfig)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())

	authMW := middleware.AuthMiddleware(authService)

	// Public auth routes
	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/refresh", authHandler.Refresh)

	// OAuth routes (public)
	router.GET("/auth/google/login", oauthHandler.GoogleLogin)
	router.GET("/auth/google/callback", oauthHandler.GoogleCallback)

	// Protected routes
	protected := router.Group("/")
	protected.Use(authMW)
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.SessionPort,
		Handler: router,
	}

	go func() {
		log.Printf("Session service starting on :%s", cfg.SessionPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Session service is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Session service exited gracefully")
}
