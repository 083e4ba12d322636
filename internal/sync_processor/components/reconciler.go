package components

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// ReconcilerImpl implements the Reconciler interface
type ReconcilerImpl struct {
	subscriptionRepo subscription.Repository
	logger           *slog.Logger
}

// NewReconciler creates a new ReconcilerImpl
func NewReconciler(subscriptionRepo subscription.Repository, logger *slog.Logger) service.Reconciler {
	return &ReconcilerImpl{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Reconcile locks the subscription's external id for the rest of tx, claims the source record,
// then reads the stored copy fresh and diffs it against next. A record applied before yields
// a Duplicate transition without reading state.
func (r *ReconcilerImpl) Reconcile(ctx context.Context, tx pgx.Tx, next *subscription.Subscription, source subscription.SourceRecord) (subscription.Transition, error) {
	logger := r.logger.With(
		"organization_id", next.OrganizationID.String(),
		"external_id", next.ExternalID,
	)

	subscriptionRepoTx := r.subscriptionRepo.WithTx(tx)

	if err := subscriptionRepoTx.LockExternalID(ctx, next.OrganizationID, next.ExternalID); err != nil {
		logger.Error("Failed to lock subscription for reconciliation", "error", err)
		return subscription.Transition{}, err
	}

	claimed, err := subscriptionRepoTx.ClaimSourceRecord(ctx, next.OrganizationID, source)
	if err != nil {
		logger.Error("Failed to claim sync record", "sync_run_id", source.SyncRunID.String(), "record_index", source.RecordIndex, "error", err)
		return subscription.Transition{}, err
	}
	if !claimed {
		logger.Info("Sync record already applied, skipping", "sync_run_id", source.SyncRunID.String(), "record_index", source.RecordIndex)
		return subscription.Transition{Kind: subscription.TransitionDuplicate, Next: next}, nil
	}

	prior, err := subscriptionRepoTx.GetByExternalID(ctx, next.OrganizationID, next.ExternalID)
	if err != nil {
		logger.Error("Failed to load stored subscription", "error", err)
		return subscription.Transition{}, err
	}

	transition := subscription.Reconcile(prior, next)
	if prior != nil {
		logger.Debug("Subscription reconciled",
			"transition", transition.Kind,
			"prior_status", prior.Status,
			"new_status", next.Status,
			"prior_amount", prior.Amount,
			"new_amount", next.Amount,
		)
	} else {
		logger.Debug("Subscription reconciled", "transition", transition.Kind, "new_status", next.Status)
	}

	return transition, nil
}
