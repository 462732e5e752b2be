// backend-go/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/api"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/cache"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/config"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/forecast"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/service"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/storage"
	"github.com/andresuchdata/pharma-inventory/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	drugRepo := repository.NewDrugRepository(db.DB)
	usageRepo := repository.NewUsageRepository(db.DB)

	// Model artifacts come from the S3 bucket when configured, otherwise
	// from the local models directory.
	artifacts := newArtifactStore(&cfg.Models)

	registry := forecast.NewRegistry(artifacts, drugRepo)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	count, err := registry.Load(loadCtx)
	cancelLoad()
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}
	logger.Log.Info().Int("models", count).Msg("Model registry loaded")

	seasonal := forecast.NewSeasonalAdjuster()
	engine := forecast.NewEngine(registry, seasonal)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	forecastService := service.NewForecastService(drugRepo, usageRepo, registry, engine, seasonal, forecastCache)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
	}, cfg.Server.AllowedOrigins, cfg.Server.APIKey)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newArtifactStore(cfg *config.ModelsConfig) forecast.ArtifactStore {
	if cfg.S3Endpoint == "" {
		return forecast.NewDirArtifactStore(cfg.Dir)
	}

	client, err := storage.NewS3Client(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	return forecast.NewObjectArtifactStore(client, cfg.S3Prefix)
}
