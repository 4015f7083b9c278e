// Package main provides the API server entry point for the fund tracker service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fund-tracker/internal/api"
	"github.com/fund-tracker/internal/config"
	"github.com/fund-tracker/internal/logging"
	"github.com/fund-tracker/internal/retry"
	"github.com/fund-tracker/internal/service"
	"github.com/fund-tracker/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	ctx := context.Background()

	var postgres *storage.PostgresDB
	if err := retry.WithDefaults(ctx, func(ctx context.Context, attempt int) error {
		var err error
		postgres, err = storage.NewPostgresDB(&cfg.Database.Postgres)
		return err
	}); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	var clickhouse *storage.ClickHouseDB
	if err := retry.WithDefaults(ctx, func(ctx context.Context, attempt int) error {
		var err error
		clickhouse, err = storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		return err
	}); err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	if err := clickhouse.EnsureNAVSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure NAV schema")
	}

	var redis *storage.RedisCache
	if err := retry.WithDefaults(ctx, func(ctx context.Context, attempt int) error {
		var err error
		redis, err = storage.NewRedisCache(&cfg.Database.Redis)
		return err
	}); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	userRepo := storage.NewUserRepository(postgres)
	fundRepo := storage.NewFundRepository(postgres)
	investmentRepo := storage.NewInvestmentRepository(postgres)
	navRepo := storage.NewNAVRepository(clickhouse)
	cacheService := storage.NewCacheService(redis, cfg.Cache.TTL)

	// Initialize services
	logger.Info("Initializing services...")

	userService := service.NewUserService(userRepo)
	fundService := service.NewFundService(fundRepo, navRepo)
	investmentService := service.NewInvestmentService(investmentRepo, fundRepo, cacheService)
	portfolioService := service.NewPortfolioService(investmentRepo, fundRepo, navRepo, cacheService)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, userService, investmentService, fundService, portfolioService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
