package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/snapshot"
)

// LedgerCheck compares the movement ledger with MRR recomputed from live subscriptions
type LedgerCheck struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	CheckedAt      time.Time `json:"checked_at"`
	LedgerMrr      int64     `json:"ledger_mrr"`
	LiveMrr        int64     `json:"live_mrr"`
	Difference     int64     `json:"difference"`
	Consistent     bool      `json:"consistent"`
}

// ReportingService is the read-only query surface over movements, snapshots and run reports
type ReportingService interface {
	// ListMovements returns one page of movements and the total count matching filter
	ListMovements(ctx context.Context, filter movement.Filter) ([]*movement.Movement, int64, error)

	ListMrrSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.MrrSnapshot, error)

	// GetMrrSnapshot returns snapshot.ErrSnapshotNotFound when the day was never snapshotted
	GetMrrSnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error)

	ListPipelineSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.PipelineSnapshot, error)

	CheckLedger(ctx context.Context, organizationID uuid.UUID) (*LedgerCheck, error)

	ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*report.SyncReport, error)

	ListSnapshotRuns(ctx context.Context, limit int) ([]*report.SnapshotRunReport, error)
}
