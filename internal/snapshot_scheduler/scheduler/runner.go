package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/domain/organization"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/snapshot_scheduler/service"
)

// TaskSubmitter runs tasks on a bounded pool. *ants.Pool satisfies it.
type TaskSubmitter interface {
	Submit(task func()) error
}

// Runner executes scheduled snapshot passes. Every organization runs on its own task with its
// own timeout, so one slow or failing organization never holds back the others.
type Runner struct {
	organizationRepo   organization.Repository
	mrrAggregator      service.MrrAggregator
	pipelineAggregator service.PipelineAggregator
	reportRepo         report.Repository
	pool               TaskSubmitter
	cfg                config.SnapshotConfig
	defaultLocation    *time.Location
	logger             *slog.Logger
	now                func() time.Time
}

func NewRunner(
	cfg config.SnapshotConfig,
	organizationRepo organization.Repository,
	mrrAggregator service.MrrAggregator,
	pipelineAggregator service.PipelineAggregator,
	reportRepo report.Repository,
	pool TaskSubmitter,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		organizationRepo:   organizationRepo,
		mrrAggregator:      mrrAggregator,
		pipelineAggregator: pipelineAggregator,
		reportRepo:         reportRepo,
		pool:               pool,
		cfg:                cfg,
		defaultLocation:    cfg.DefaultLocation(),
		logger:             logger,
		now:                time.Now,
	}
}

// Start runs a pass on every interval tick until ctx is canceled
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting snapshot scheduler",
		"interval", r.cfg.Interval.String(),
		"run_on_start", r.cfg.RunOnStart,
		"org_timeout", r.cfg.OrgTimeout.String(),
	)

	if r.cfg.RunOnStart {
		r.runAndLog(ctx)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Snapshot scheduler stopping due to context cancellation.")
			return
		case <-ticker.C:
			r.runAndLog(ctx)
		}
	}
}

func (r *Runner) runAndLog(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("Snapshot pass failed", "error", err)
	}
}

// RunOnce snapshots every organization for its previous and current local day and stores the
// run report.
// An error is returned only when the pass could not start; per-organization failures are in the report.
func (r *Runner) RunOnce(ctx context.Context) (*report.SnapshotRunReport, error) {
	orgIDs, err := r.organizationRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	run := &report.SnapshotRunReport{
		RunID:         uuid.New(),
		StartedAt:     r.now().UTC(),
		Organizations: make([]report.OrganizationResult, len(orgIDs)),
	}
	logger := r.logger.With("run_id", run.RunID.String())
	logger.Info("Snapshot pass started", "organizations", len(orgIDs))

	var wg sync.WaitGroup
	for i, orgID := range orgIDs {
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			run.Organizations[i] = r.runOrganization(ctx, orgID)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit organization snapshot", "organization_id", orgID.String(), "error", err)
			run.Organizations[i] = report.OrganizationResult{
				OrganizationID: orgID,
				Reason:         shared.FailureReasonUnknownError,
				Error:          err.Error(),
			}
		}
	}
	wg.Wait()

	run.CompletedAt = r.now().UTC()

	if err := r.reportRepo.CreateSnapshotRun(ctx, run); err != nil {
		logger.Error("Failed to store snapshot run report", "error", err)
	}

	logger.Info("Snapshot pass completed",
		"organizations", len(orgIDs),
		"failed", run.FailedCount(),
		"duration", run.CompletedAt.Sub(run.StartedAt).String(),
	)
	return run, nil
}

// runOrganization closes the previous local day's MRR snapshot, so movements recorded after
// the last pass of that day are included, then snapshots the current day. Deals keep no
// history and are snapshotted for the current day only. The steps are independent, so a
// failure in one does not skip the others.
func (r *Runner) runOrganization(ctx context.Context, orgID uuid.UUID) report.OrganizationResult {
	result := report.OrganizationResult{OrganizationID: orgID}
	logger := r.logger.With("organization_id", orgID.String())

	if r.cfg.OrgTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.OrgTimeout)
		defer cancel()
	}

	loc, err := r.location(ctx, orgID)
	if err != nil {
		return failed(result, err)
	}
	day := shared.DayKey(r.now(), loc)
	closed := day.AddDate(0, 0, -1)
	result.SnapshotDate = day.Format(shared.DateFormat)
	result.ClosedDate = closed.Format(shared.DateFormat)

	var errs []error
	closing, err := r.mrrAggregator.RunDailySnapshot(ctx, orgID, closed)
	if err != nil {
		errs = append(errs, fmt.Errorf("closed day mrr snapshot: %w", err))
	} else {
		result.DriftDetected = closing.DriftDetected
	}

	mrr, err := r.mrrAggregator.RunDailySnapshot(ctx, orgID, day)
	if err != nil {
		errs = append(errs, fmt.Errorf("mrr snapshot: %w", err))
	} else {
		result.TotalMrr = mrr.Snapshot.TotalMrr
		result.DriftDetected = result.DriftDetected || mrr.DriftDetected
	}

	pipeline, err := r.pipelineAggregator.RunPipelineSnapshot(ctx, orgID, day)
	if err != nil {
		errs = append(errs, fmt.Errorf("pipeline snapshot: %w", err))
	} else {
		result.WeightedValue = pipeline.WeightedValue
	}

	if len(errs) > 0 {
		logger.Error("Organization snapshot failed", "snapshot_date", result.SnapshotDate, "errors", len(errs))
		return failed(result, errs...)
	}

	result.Succeeded = true
	return result
}

func (r *Runner) location(ctx context.Context, orgID uuid.UUID) (*time.Location, error) {
	org, err := r.organizationRepo.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, organization.ErrOrganizationNotFound) {
			return r.defaultLocation, nil
		}
		return nil, err
	}
	return org.Location(r.defaultLocation), nil
}

func failed(result report.OrganizationResult, errs ...error) report.OrganizationResult {
	result.Succeeded = false
	result.Reason = shared.FailureReasonOf(errs[0])
	result.Error = errors.Join(errs...).Error()
	return result
}
