package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
)

// snapshotTxOptions gives the aggregation one consistent view of live state and movements
var snapshotTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead}

// MrrAggregatorImpl recomputes totals from live subscriptions and takes the decomposition
// from the day's movements. A closed day's total is the live total with the movements of
// later days backed out.
type MrrAggregatorImpl struct {
	txRunner         TxRunner
	subscriptionRepo subscription.Repository
	movementRepo     movement.Repository
	snapshotRepo     snapshot.Repository
	logger           *slog.Logger
}

func NewMrrAggregator(
	txRunner TxRunner,
	subscriptionRepo subscription.Repository,
	movementRepo movement.Repository,
	snapshotRepo snapshot.Repository,
	logger *slog.Logger,
) *MrrAggregatorImpl {
	return &MrrAggregatorImpl{
		txRunner:         txRunner,
		subscriptionRepo: subscriptionRepo,
		movementRepo:     movementRepo,
		snapshotRepo:     snapshotRepo,
		logger:           logger,
	}
}

// RunDailySnapshot upserts the snapshot keyed by (organization, day). Reruns for the same
// day overwrite the row with values computed from the same stored state.
func (a *MrrAggregatorImpl) RunDailySnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*DailySnapshotResult, error) {
	logger := a.logger.With(
		"organization_id", organizationID.String(),
		"snapshot_date", day.Format(shared.DateFormat),
	)

	var result *DailySnapshotResult
	err := a.txRunner.ExecuteTxWithOptions(ctx, snapshotTxOptions, func(tx pgx.Tx) error {
		subscriptionRepoTx := a.subscriptionRepo.WithTx(tx)
		movementRepoTx := a.movementRepo.WithTx(tx)
		snapshotRepoTx := a.snapshotRepo.WithTx(tx)

		live, err := subscriptionRepoTx.ListLive(ctx, organizationID)
		if err != nil {
			return err
		}

		totalMrr, customers, err := normalizer.LiveTotals(live)
		if err != nil {
			return err
		}

		laterDelta, laterCount, err := movementRepoTx.SumDeltasAfterPeriod(ctx, organizationID, day)
		if err != nil {
			return err
		}
		if laterCount > 0 {
			totalMrr -= laterDelta
			customers, err = movementRepoTx.CountCustomersWithMrr(ctx, organizationID, day)
			if err != nil {
				return err
			}
		}

		totals, err := movementRepoTx.SumByTypeForPeriod(ctx, organizationID, day)
		if err != nil {
			return err
		}

		snap := &snapshot.MrrSnapshot{
			OrganizationID:  organizationID,
			SnapshotDate:    day,
			TotalMrr:        totalMrr,
			TotalCustomers:  customers,
			NewMrr:          totals.New,
			ExpansionMrr:    totals.Expansion,
			ContractionMrr:  totals.Contraction,
			ChurnMrr:        totals.Churn,
			ReactivationMrr: totals.Reactivation,
		}

		previous, err := snapshotRepoTx.GetPreviousMrr(ctx, organizationID, day)
		if err != nil {
			return err
		}

		result = &DailySnapshotResult{Snapshot: snap}
		if previous != nil && previous.SnapshotDate.Equal(day.AddDate(0, 0, -1)) {
			carried := previous.TotalMrr + snap.NetNewMrr()
			result.CarriedMrr = &carried
			result.DriftDetected = carried != snap.TotalMrr
		}

		return snapshotRepoTx.UpsertMrr(ctx, snap)
	})
	if err != nil {
		logger.Error("Failed to compute MRR snapshot", "error", err)
		return nil, err
	}

	if result.DriftDetected {
		logger.Warn("Live MRR disagrees with previous snapshot plus today's movements",
			"total_mrr", result.Snapshot.TotalMrr,
			"carried_mrr", *result.CarriedMrr,
		)
	}

	logger.Info("MRR snapshot stored",
		"total_mrr", result.Snapshot.TotalMrr,
		"total_customers", result.Snapshot.TotalCustomers,
		"net_new_mrr", result.Snapshot.NetNewMrr(),
	)
	return result, nil
}
