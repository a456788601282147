package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-platform/internal/config"
	"sales-platform/internal/geo"
	"sales-platform/internal/handlers"
	"sales-platform/internal/prediction"
	"sales-platform/internal/repository"
	"sales-platform/internal/services"
	"sales-platform/internal/weather"
	"sales-platform/pkg/database"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("sales-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting sales platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Database,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("sales_platform")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Load startup artifacts. Missing locations or model files are fatal;
	// the API cannot produce meaningful answers without them.
	locations, err := geo.LoadLocations(cfg.Paths.LocationsFile)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load location table", logging.Fields{
			"path": cfg.Paths.LocationsFile,
		}, err)
	}

	hourModels, err := prediction.LoadModels(cfg.Paths.ModelsDir)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load prediction models", logging.Fields{
			"dir": cfg.Paths.ModelsDir,
		}, err)
	}

	// Initialize repository
	salesRepo := repository.NewSalesRepository(db, logger, metricsCollector)

	// Initialize weather chain
	weatherCache := weather.NewCache(cfg.Weather.CacheFile, logger)
	kmaClient := weather.NewKMAClient(weather.KMAConfig{
		ServiceKey: cfg.Weather.ServiceKey,
		BaseURL:    cfg.Weather.BaseURL,
		StationURL: cfg.Weather.StationURL,
		StationID:  cfg.Weather.StationID,
		Timeout:    cfg.Weather.Timeout,
	}, weatherCache, logger, metricsCollector)
	resolver := weather.NewResolver(kmaClient, salesRepo, logger, metricsCollector)

	// Initialize prediction engine and services
	engine := prediction.NewEngine(hourModels, logger, metricsCollector)
	forecastService := services.NewForecastService(
		salesRepo, resolver, engine,
		cfg.Actual.StartYMD, cfg.Actual.EndYMD,
		logger, metricsCollector,
	)

	// Initialize handlers
	forecastHandler := handlers.NewForecastHandler(forecastService, locations, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)
	router.Use(handlers.LoggingMiddleware(logger))

	// Register routes
	forecastHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
