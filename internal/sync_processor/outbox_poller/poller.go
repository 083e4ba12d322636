package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/shared"
)

// Poller relays pending movement outbox messages to Kafka
type Poller struct {
	outboxRepo        outbox.Repository
	movementPublisher MovementPublisher
	logger            *slog.Logger
	pollInterval      time.Duration
	batchSize         int
	maxRetryAttempts  int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	movementPublisher MovementPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:        outboxRepo,
		movementPublisher: movementPublisher,
		logger:            logger,
		pollInterval:      cfg.PollingInterval,
		batchSize:         cfg.BatchSize,
		maxRetryAttempts:  cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		logger := p.logger.With(
			"outbox_id", msg.ID,
			"movement_id", msg.MovementID.String(),
		)

		if err := p.movementPublisher.PublishMovement(ctx, msg); err != nil {
			logger.Error("Failed to publish movement event", "current_attempts", msg.Attempts, "error", err)

			if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				logger.Error("Failed to increment attempts for outbox message", "error", errInc)
				continue
			}

			if msg.Attempts+1 >= p.maxRetryAttempts {
				logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
					"attempts_made", msg.Attempts+1,
				)
				if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
					logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", errUpdate)
				}
			}
			continue
		}
		logger.Debug("Published movement event")
	}
	return nil
}
