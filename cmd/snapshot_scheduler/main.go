package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/data/mongo"
	"github.com/revenue-ledger/internal/data/postgres"
	"github.com/revenue-ledger/internal/logger"
	"github.com/revenue-ledger/internal/platform/persistence"
	"github.com/revenue-ledger/internal/snapshot_scheduler/scheduler"
	"github.com/revenue-ledger/internal/snapshot_scheduler/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("snapshot_scheduler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Snapshot Scheduler",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"default_timezone", cfg.Snapshot.DefaultTimezone,
	)

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

	// Initialize repositories
	subscriptionRepo := postgres.NewSubscriptionRepository(log, postgresDB)
	movementRepo := postgres.NewMovementRepository(log, postgresDB)
	snapshotRepo := postgres.NewSnapshotRepository(log, postgresDB)
	dealRepo := postgres.NewDealRepository(log, postgresDB)
	organizationRepo := postgres.NewOrganizationRepository(log, postgresDB)
	reportRepo := mongo.NewReportRepository(log, mongoDB.Database())
	if err := reportRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure report indexes", "error", err)
		os.Exit(1)
	}

	// Initialize aggregators
	mrrAggregator := service.NewMrrAggregator(postgresDB, subscriptionRepo, movementRepo, snapshotRepo, log)
	pipelineAggregator := service.NewPipelineAggregator(postgresDB, dealRepo, snapshotRepo, log)

	// One pool task per organization
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}

	runner := scheduler.NewRunner(
		cfg.Snapshot,
		organizationRepo,
		mrrAggregator,
		pipelineAggregator,
		reportRepo,
		pool,
		log,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Snapshot runner stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	log.Info("Shutting down worker pool", "running_workers", pool.Running())
	pool.Release()

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	log.Info("Snapshot Scheduler shutdown completed")
}
