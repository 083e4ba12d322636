package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// LedgerWriterImpl implements the LedgerWriter interface
type LedgerWriterImpl struct {
	subscriptionRepo subscription.Repository
	movementRepo     movement.Repository
	logger           *slog.Logger
}

// NewLedgerWriter creates a new LedgerWriterImpl
func NewLedgerWriter(subscriptionRepo subscription.Repository, movementRepo movement.Repository, logger *slog.Logger) service.LedgerWriter {
	return &LedgerWriterImpl{
		subscriptionRepo: subscriptionRepo,
		movementRepo:     movementRepo,
		logger:           logger,
	}
}

// Apply overwrites the stored subscription with transition.Next and appends m when set.
// Both writes go through tx so they commit or roll back together. The stored updated_at
// marker only advances for new subscriptions and movement-producing transitions.
func (w *LedgerWriterImpl) Apply(ctx context.Context, tx pgx.Tx, transition subscription.Transition, m *movement.Movement, now time.Time) error {
	next := transition.Next
	if next == nil {
		return shared.InvariantViolationError{Reason: "transition has no target state"}
	}

	logger := w.logger.With(
		"organization_id", next.OrganizationID.String(),
		"external_id", next.ExternalID,
	)

	if m != nil && m.SubscriptionID != next.ID {
		logger.Error("Movement does not belong to the subscription being stored",
			"movement_subscription_id", m.SubscriptionID.String(),
			"subscription_id", next.ID.String(),
		)
		return shared.InvariantViolationError{
			SubscriptionID: next.ID.String(),
			Reason:         fmt.Sprintf("movement %s targets subscription %s", m.ID, m.SubscriptionID),
		}
	}

	switch {
	case transition.Prior == nil:
		next.CreatedAt = now
		next.UpdatedAt = now
	case m != nil:
		next.UpdatedAt = now
	default:
		next.UpdatedAt = transition.Prior.UpdatedAt
	}

	if err := w.subscriptionRepo.WithTx(tx).Upsert(ctx, next); err != nil {
		logger.Error("Failed to store subscription state", "error", err)
		return err
	}

	if m == nil {
		logger.Info("Subscription state stored without movement", "status", next.Status, "transition", transition.Kind)
		return nil
	}

	if err := w.movementRepo.WithTx(tx).Create(ctx, m); err != nil {
		logger.Error("Failed to append movement", "movement_id", m.ID.String(), "error", err)
		return err
	}
	logger.Info("Subscription state and movement stored",
		"movement_id", m.ID.String(),
		"type", m.Type,
		"delta", m.AmountDeltaMonthly,
	)

	return nil
}
