package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/controller"
	"github.com/ikkim/neighborly-backend/internal/app/repository"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	"github.com/ikkim/neighborly-backend/internal/db"
	"github.com/ikkim/neighborly-backend/internal/metrics"
	"github.com/ikkim/neighborly-backend/internal/middleware"
	"github.com/ikkim/neighborly-backend/internal/router"
	"github.com/ikkim/neighborly-backend/internal/storage"
	"github.com/ikkim/neighborly-backend/internal/websocket"
	"github.com/ikkim/neighborly-backend/pkg/logger"
	"github.com/ikkim/neighborly-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Server.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Neighborly Backend Server", map[string]interface{}{
		"environment":    cfg.Server.Environment,
		"port":           cfg.Server.Port,
		"log_level":      logLevel,
		"flag_threshold": cfg.Moderation.FlagThreshold,
		"moderation":     cfg.Moderation.RequireModeration,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if sqlDB, err := db.GetDB().DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
			logger.Warn("Failed to register database metrics", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Redis backs the summary cache and the token blacklist; both are optional
	var summaryCache service.SummaryCache
	var revokeToken service.TokenRevoker
	var isRevoked middleware.RevocationChecker
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without cache and token revocation", map[string]interface{}{
				"error": err.Error(),
			})
			_ = redis.Close()
		} else {
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close redis connection", err)
				}
			}()
			summaryCache = redis.NewSummaryCache(redis.GetClient(), cfg.Redis.SummaryTTL)
			revokeToken = redis.BlacklistToken
			isRevoked = redis.IsTokenBlacklisted
		}
	}

	// Moderation event feed
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		revokeToken,
	)
	businessService := service.NewBusinessService(businessRepo)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, userRepo, cfg.Moderation, summaryCache, hub)
	summaryService := service.NewSummaryService(reviewRepo, businessRepo, summaryCache)
	exportService := service.NewExportService(reviewRepo, businessRepo, summaryService)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	businessController := controller.NewBusinessController(businessService)
	reviewController := controller.NewReviewController(reviewService, summaryService)
	moderationController := controller.NewModerationController(
		reviewService,
		summaryService,
		exportService,
		hub,
		cfg.CORS.AllowedOrigins,
	)
	uploadController := controller.NewUploadController(storage.NewS3Storage(cfg.S3))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, isRevoked)

	engine := router.NewRouter(
		authController,
		businessController,
		reviewController,
		moderationController,
		uploadController,
		authMiddleware,
		cfg,
	).Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	logger.Info("Server stopped successfully")
}
