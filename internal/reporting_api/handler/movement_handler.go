package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/reporting_api/service"
)

// MovementHandler serves the movement ledger
type MovementHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewMovementHandler(logger *slog.Logger, reportingService service.ReportingService) *MovementHandler {
	return &MovementHandler{
		reportingService: reportingService,
		logger:           logger,
	}
}

// List returns one page of an organization's movements, newest first
func (h *MovementHandler) List(c *gin.Context) {
	orgID, ok := organizationID(c, h.logger)
	if !ok {
		return
	}

	var params MovementListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid movement query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if !params.From.IsZero() && !params.To.IsZero() && params.From.After(params.To) {
		RespondBadRequest(c, "from must not be after to")
		return
	}

	filter := movement.Filter{
		OrganizationID: orgID,
		From:           params.From,
		To:             params.To,
		Type:           movement.Type(params.Type),
		Limit:          params.Limit,
		Offset:         params.Offset,
	}

	movements, total, err := h.reportingService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list movements", err)
		return
	}

	responses := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		responses = append(responses, mapMovementToResponse(m))
	}

	RespondWithPage(c, responses, params.Limit, params.Offset, total)
}

// organizationID parses the :id path parameter and answers 400 when it is not a uuid
func organizationID(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Error("Invalid organization ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid organization ID")
		return uuid.Nil, false
	}
	return id, true
}
