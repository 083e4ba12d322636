package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/data/mongo"
	"github.com/revenue-ledger/internal/data/postgres"
	"github.com/revenue-ledger/internal/logger"
	"github.com/revenue-ledger/internal/platform/messaging/consumers"
	"github.com/revenue-ledger/internal/platform/messaging/producers"
	"github.com/revenue-ledger/internal/platform/persistence"
	"github.com/revenue-ledger/internal/sync_processor/components"
	"github.com/revenue-ledger/internal/sync_processor/consumer"
	"github.com/revenue-ledger/internal/sync_processor/outbox_poller"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("sync_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Sync Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
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
	reportRepo := mongo.NewReportRepository(log, mongoDB.Database())
	if err := reportRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure report indexes", "error", err)
		os.Exit(1)
	}
	repos := components.Repositories{
		Subscriptions: postgres.NewSubscriptionRepository(log, postgresDB),
		Movements:     postgres.NewMovementRepository(log, postgresDB),
		Customers:     postgres.NewCustomerRepository(log, postgresDB),
		Deals:         postgres.NewDealRepository(log, postgresDB),
		Organizations: postgres.NewOrganizationRepository(log, postgresDB),
		Outbox:        postgres.NewOutboxRepository(log, postgresDB),
		Reports:       reportRepo,
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// A nil producer must not reach the handler as a typed nil interface
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	// Initialize movement event producer for the outbox relay
	movementProducer, err := producers.NewMovementEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize movement Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize processing service with separated concerns
	processingService, workerPool := components.CreateProcessingService(
		postgresDB,
		repos,
		log,
		cfg,
	)

	// Initialize sync page handler
	syncPageHandler := consumer.NewSyncPageHandler(
		log,
		processingService,
		deadLetters,
	)

	// Initialize outbox poller
	movementPublisher := outbox_poller.NewMovementPublisher(
		repos.Outbox,
		movementProducer,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		repos.Outbox,
		movementPublisher,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.SyncTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.SyncTopic, cfg.Kafka.ConsumerGroup, syncPageHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish before releasing the pool they submit to
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if workerPool != nil {
		workerPool.Shutdown()
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = movementProducer.Close(); err != nil {
		log.Error("Error closing movement Kafka producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Sync Processor shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Sync Processor shutdown completed")
}
