package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
)

var hundred = decimal.NewFromInt(100)

type PipelineAggregatorImpl struct {
	txRunner     TxRunner
	dealRepo     deal.Repository
	snapshotRepo snapshot.Repository
	logger       *slog.Logger
}

func NewPipelineAggregator(
	txRunner TxRunner,
	dealRepo deal.Repository,
	snapshotRepo snapshot.Repository,
	logger *slog.Logger,
) *PipelineAggregatorImpl {
	return &PipelineAggregatorImpl{
		txRunner:     txRunner,
		dealRepo:     dealRepo,
		snapshotRepo: snapshotRepo,
		logger:       logger,
	}
}

// RunPipelineSnapshot sums open deals into a pipeline gauge for day
func (a *PipelineAggregatorImpl) RunPipelineSnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.PipelineSnapshot, error) {
	logger := a.logger.With(
		"organization_id", organizationID.String(),
		"snapshot_date", day.Format(shared.DateFormat),
	)

	var snap *snapshot.PipelineSnapshot
	err := a.txRunner.ExecuteTxWithOptions(ctx, snapshotTxOptions, func(tx pgx.Tx) error {
		deals, err := a.dealRepo.WithTx(tx).ListOpen(ctx, organizationID)
		if err != nil {
			return err
		}

		snap = PipelineFor(organizationID, day, deals)
		return a.snapshotRepo.WithTx(tx).UpsertPipeline(ctx, snap)
	})
	if err != nil {
		logger.Error("Failed to compute pipeline snapshot", "error", err)
		return nil, err
	}

	logger.Info("Pipeline snapshot stored",
		"deal_count", snap.DealCount,
		"total_value", snap.TotalValue,
		"weighted_value", snap.WeightedValue,
	)
	return snap, nil
}

// PipelineFor aggregates open deals. Each deal's weighted value is rounded on its own
// before summing; deals without a probability count at deal.DefaultProbability.
func PipelineFor(organizationID uuid.UUID, day time.Time, deals []*deal.Deal) *snapshot.PipelineSnapshot {
	snap := &snapshot.PipelineSnapshot{
		OrganizationID: organizationID,
		SnapshotDate:   day,
	}
	for _, d := range deals {
		if d.IsClosed {
			continue
		}
		weighted := decimal.NewFromInt(d.Amount).
			Mul(decimal.NewFromInt(int64(d.EffectiveProbability()))).
			Div(hundred).
			Round(0)

		snap.TotalValue += d.Amount
		snap.WeightedValue += weighted.IntPart()
		snap.DealCount++
	}
	return snap
}
