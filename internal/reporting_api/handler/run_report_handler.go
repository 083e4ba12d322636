package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/revenue-ledger/internal/reporting_api/service"
)

// RunReportHandler serves stored sync page and snapshot run reports
type RunReportHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewRunReportHandler(logger *slog.Logger, reportingService service.ReportingService) *RunReportHandler {
	return &RunReportHandler{
		reportingService: reportingService,
		logger:           logger,
	}
}

// ListSyncReports returns the organization's latest sync page reports
func (h *RunReportHandler) ListSyncReports(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}

	var params ListLimitParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid limit")
		return
	}

	reports, err := h.reportingService.ListSyncReports(c.Request.Context(), orgID, params.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list sync reports", err)
		return
	}
	RespondOK(c, reports)
}

// ListSnapshotRuns returns the latest scheduled snapshot passes across organizations
func (h *RunReportHandler) ListSnapshotRuns(c *gin.Context) {
	var params ListLimitParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid limit")
		return
	}

	runs, err := h.reportingService.ListSnapshotRuns(c.Request.Context(), params.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list snapshot runs", err)
		return
	}
	RespondOK(c, runs)
}
