package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry queues the movement event for the poller
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, mv *movement.Movement) error {
	outboxRepoTx := m.outboxRepo.WithTx(tx)

	outboxMessage, err := outbox.NewMessage(mv)
	if err != nil {
		m.logger.Error("Failed to create new outbox message (marshal payload)",
			"movement_id", mv.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for movement %s: %w", mv.ID.String(), err)
	}

	if err = outboxRepoTx.Create(ctx, outboxMessage); err != nil {
		m.logger.Error("Failed to create outbox message",
			"movement_id", mv.ID.String(),
			"subscription_id", mv.SubscriptionID.String(),
			"error", err,
		)
		return err
	}
	m.logger.Debug("Outbox message created successfully",
		"movement_id", mv.ID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
