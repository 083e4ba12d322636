package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/platform/messaging/producers"
)

// MovementPublisher publishes one outbox message as a movement event
type MovementPublisher interface {
	PublishMovement(ctx context.Context, message *outbox.Message) error
}

// KafkaMovementPublisher publishes movement events keyed by subscription id, so events
// of one subscription stay ordered on a partition
type KafkaMovementPublisher struct {
	outboxRepo outbox.Repository
	publisher  producers.MessagePublisher
	logger     *slog.Logger
}

func NewMovementPublisher(
	outboxRepo outbox.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) MovementPublisher {
	return &KafkaMovementPublisher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// PublishMovement publishes the stored payload unchanged and marks the message PROCESSED.
// A payload that does not decode is marked FAILED_TO_PUBLISH right away.
func (p *KafkaMovementPublisher) PublishMovement(ctx context.Context, message *outbox.Message) error {
	mv, err := message.GetMovement()
	if err != nil {
		p.logger.Error("Failed to unmarshal movement from outbox payload", "outbox_id", message.ID, "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error",
				"outbox_id", message.ID,
				"update_error", updateErr,
			)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With(
		"outbox_id", message.ID,
		"movement_id", mv.ID.String(),
		"organization_id", mv.OrganizationID.String(),
	)

	if err := p.publisher.Publish(ctx, mv.SubscriptionID.String(), json.RawMessage(message.Payload)); err != nil {
		return fmt.Errorf("publish movement %s failed: %w", mv.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("movement %s published, but failed to mark outbox %d as PROCESSED: %w", mv.ID, message.ID, err)
	}

	logger.Info("Movement event published", "type", mv.Type, "delta", mv.AmountDeltaMonthly)
	return nil
}
