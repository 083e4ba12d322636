package components

import (
	"context"
	"log/slog"

	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

type ReportRecorderImpl struct {
	reportRepo report.Repository
	logger     *slog.Logger
}

func NewReportRecorder(reportRepo report.Repository, logger *slog.Logger) service.ReportRecorder {
	return &ReportRecorderImpl{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

// RecordSyncReport stores the page summary
func (r *ReportRecorderImpl) RecordSyncReport(ctx context.Context, rep *report.SyncReport) error {
	if len(rep.Failures) > 0 {
		r.logger.Warn("Recording sync report with failed records",
			"sync_run_id", rep.SyncRunID.String(),
			"organization_id", rep.OrganizationID.String(),
			"failures", len(rep.Failures),
			"retryable", rep.HasRetryableFailure(),
		)
	}

	if err := r.reportRepo.CreateSyncReport(ctx, rep); err != nil {
		return err
	}
	return nil
}
