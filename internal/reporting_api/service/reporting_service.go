package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
)

// ReportingServiceImpl implements the ReportingService interface
type ReportingServiceImpl struct {
	movementRepo     movement.Repository
	snapshotRepo     snapshot.Repository
	subscriptionRepo subscription.Repository
	reportRepo       report.Repository
	logger           *slog.Logger
	now              func() time.Time
}

// NewReportingService creates a new reporting service
func NewReportingService(
	logger *slog.Logger,
	movementRepo movement.Repository,
	snapshotRepo snapshot.Repository,
	subscriptionRepo subscription.Repository,
	reportRepo report.Repository,
) ReportingService {
	return &ReportingServiceImpl{
		movementRepo:     movementRepo,
		snapshotRepo:     snapshotRepo,
		subscriptionRepo: subscriptionRepo,
		reportRepo:       reportRepo,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *ReportingServiceImpl) ListMovements(ctx context.Context, filter movement.Filter) ([]*movement.Movement, int64, error) {
	movements, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.movementRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (s *ReportingServiceImpl) ListMrrSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.MrrSnapshot, error) {
	return s.snapshotRepo.ListMrr(ctx, organizationID, from, to)
}

func (s *ReportingServiceImpl) GetMrrSnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	return s.snapshotRepo.GetMrr(ctx, organizationID, day)
}

func (s *ReportingServiceImpl) ListPipelineSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.PipelineSnapshot, error) {
	return s.snapshotRepo.ListPipeline(ctx, organizationID, from, to)
}

// CheckLedger sums every movement up to now and compares it with the live-state total.
// The two reads are not one snapshot, so a sync running concurrently can show a transient difference.
func (s *ReportingServiceImpl) CheckLedger(ctx context.Context, organizationID uuid.UUID) (*LedgerCheck, error) {
	checkedAt := s.now().UTC()

	ledgerMrr, err := s.movementRepo.SumDeltas(ctx, organizationID, checkedAt)
	if err != nil {
		return nil, err
	}

	live, err := s.subscriptionRepo.ListLive(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	liveMrr, _, err := normalizer.LiveTotals(live)
	if err != nil {
		return nil, err
	}

	check := &LedgerCheck{
		OrganizationID: organizationID,
		CheckedAt:      checkedAt,
		LedgerMrr:      ledgerMrr,
		LiveMrr:        liveMrr,
		Difference:     liveMrr - ledgerMrr,
		Consistent:     liveMrr == ledgerMrr,
	}

	if !check.Consistent {
		s.logger.Warn("Movement ledger disagrees with live MRR",
			"organization_id", organizationID.String(),
			"ledger_mrr", ledgerMrr,
			"live_mrr", liveMrr,
		)
	}

	return check, nil
}

func (s *ReportingServiceImpl) ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*report.SyncReport, error) {
	return s.reportRepo.ListSyncReports(ctx, organizationID, limit)
}

func (s *ReportingServiceImpl) ListSnapshotRuns(ctx context.Context, limit int) ([]*report.SnapshotRunReport, error) {
	return s.reportRepo.ListSnapshotRuns(ctx, limit)
}
