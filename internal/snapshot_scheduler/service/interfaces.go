package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/snapshot"
)

// TxRunner runs fn inside a transaction opened with opts
type TxRunner interface {
	ExecuteTxWithOptions(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error
}

// DailySnapshotResult is the stored MRR snapshot plus the drift check against the previous day
type DailySnapshotResult struct {
	Snapshot      *snapshot.MrrSnapshot
	CarriedMrr    *int64 // previous day's total plus the day's net movement, nil without a previous-day snapshot
	DriftDetected bool
}

// MrrAggregator computes and upserts one organization's MRR snapshot for a day
type MrrAggregator interface {
	RunDailySnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*DailySnapshotResult, error)
}

// PipelineAggregator computes and upserts one organization's pipeline snapshot for a day
type PipelineAggregator interface {
	RunPipelineSnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.PipelineSnapshot, error)
}
