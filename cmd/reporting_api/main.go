package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/data/mongo"
	"github.com/revenue-ledger/internal/data/postgres"
	"github.com/revenue-ledger/internal/logger"
	"github.com/revenue-ledger/internal/platform/persistence"
	"github.com/revenue-ledger/internal/reporting_api"
	"github.com/revenue-ledger/internal/reporting_api/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("reporting_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize services
	reportingService := service.NewReportingService(
		log,
		postgres.NewMovementRepository(log, postgresDB),
		postgres.NewSnapshotRepository(log, postgresDB),
		postgres.NewSubscriptionRepository(log, postgresDB),
		mongo.NewReportRepository(log, mongoDB.Database()),
	)

	// Initialize REST server
	server := reporting_api.NewServer(log, cfg, reportingService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores they read from
	if err = server.Stop(context.Background(), cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	mongoCtx, cancelMongo := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancelMongo()
	if err = mongoDB.Close(mongoCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("Reporting API shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Reporting API shutdown completed")
}
