package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/reporting_api/service"
)

// defaultRangeDays is the listing window when the caller gives no from
const defaultRangeDays = 30

// SnapshotHandler serves MRR and pipeline snapshots and the ledger check
type SnapshotHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
	now              func() time.Time
}

func NewSnapshotHandler(logger *slog.Logger, reportingService service.ReportingService) *SnapshotHandler {
	return &SnapshotHandler{
		reportingService: reportingService,
		logger:           logger,
		now:              time.Now,
	}
}

// ListMrr returns daily MRR snapshots in [from, to], oldest first
func (h *SnapshotHandler) ListMrr(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	snapshots, err := h.reportingService.ListMrrSnapshots(c.Request.Context(), orgID, from, to)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list MRR snapshots", err)
		return
	}

	responses := make([]MrrSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		responses = append(responses, mapMrrSnapshotToResponse(s))
	}
	RespondOK(c, responses)
}

// GetMrr returns the MRR snapshot of one day, 404 when the day was never snapshotted
func (h *SnapshotHandler) GetMrr(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}

	dateParam := c.Param("date")
	day, err := time.Parse(shared.DateFormat, dateParam)
	if err != nil {
		RespondBadRequest(c, "Invalid snapshot date, expected YYYY-MM-DD")
		return
	}

	s, err := h.reportingService.GetMrrSnapshot(c.Request.Context(), orgID, day)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			RespondNotFound(c, "Snapshot not found")
			return
		}
		respondServiceError(c, h.logger, "Failed to get MRR snapshot", err)
		return
	}

	RespondOK(c, mapMrrSnapshotToResponse(s))
}

// ListPipeline returns daily pipeline snapshots in [from, to], oldest first
func (h *SnapshotHandler) ListPipeline(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	snapshots, err := h.reportingService.ListPipelineSnapshots(c.Request.Context(), orgID, from, to)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list pipeline snapshots", err)
		return
	}

	responses := make([]PipelineSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		responses = append(responses, mapPipelineSnapshotToResponse(s))
	}
	RespondOK(c, responses)
}

// LedgerCheck compares the summed movement ledger with live MRR
func (h *SnapshotHandler) LedgerCheck(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}

	check, err := h.reportingService.CheckLedger(c.Request.Context(), orgID)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to check ledger", err)
		return
	}
	RespondOK(c, check)
}

// dateRange binds from/to. A missing to is today (UTC) and a missing from is defaultRangeDays before to.
func (h *SnapshotHandler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid date range", "error", err)
		RespondBadRequest(c, "Invalid date range, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}

	to := params.To
	if to.IsZero() {
		to = shared.DayKey(h.now(), time.UTC)
	}
	from := params.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultRangeDays)
	}
	if from.After(to) {
		RespondBadRequest(c, "from must not be after to")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
