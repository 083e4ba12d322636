package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/normalizer"
	"github.com/revenue-ledger/internal/platform/messaging/producers"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// SyncPageHandler handles provider sync pages consumed from Kafka
type SyncPageHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewSyncPageHandler creates a new handler
func NewSyncPageHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *SyncPageHandler {
	return &SyncPageHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one sync page. Returning an error leaves the offset uncommitted,
// so the consumer redelivers the page. Records that can never be applied are parked on the
// DLQ once the rest of the page has been applied.
func (h *SyncPageHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var page normalizer.SyncPage
	if err := json.Unmarshal(value, &page); err != nil {
		h.logger.Error("Failed to unmarshal sync page from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		if dlqErr := h.deadLetter(ctx, string(key), value, shared.FailureReasonMalformedInput, err.Error()); dlqErr != nil {
			return fmt.Errorf("failed to unmarshal message value: %w", err)
		}
		return nil
	}

	logger := h.logger.With(
		"sync_run_id", page.SyncRunID.String(),
		"organization_id", page.OrganizationID.String(),
	)
	logger.Info("Received sync page for processing", "provider", page.Provider, "records", len(page.Records))

	rep, err := h.processingService.ProcessPage(ctx, &page)
	if err != nil {
		if errors.Is(err, shared.ErrMalformedInput) {
			logger.Error("Sync page rejected", "error", err)
			if dlqErr := h.deadLetter(ctx, string(key), value, shared.FailureReasonMalformedInput, err.Error()); dlqErr != nil {
				return fmt.Errorf("processing sync page %s failed: %w", page.SyncRunID.String(), err)
			}
			return nil
		}
		logger.Error("Failed to process sync page", "error", err)
		return fmt.Errorf("processing sync page %s failed: %w", page.SyncRunID.String(), err)
	}

	if rep.HasRetryableFailure() {
		logger.Warn("Sync page has transient record failures, leaving it for redelivery", "failures", len(rep.Failures))
		return fmt.Errorf("sync page %s has %d failed records", page.SyncRunID.String(), len(rep.Failures))
	}

	if err := h.parkFailures(ctx, &page, rep); err != nil {
		return err
	}

	logger.Info("Successfully processed sync page",
		"processed", rep.Processed,
		"unchanged", rep.Unchanged,
		"movements", rep.Movements,
		"deals_upserted", rep.DealsUpserted,
	)
	return nil
}

// parkFailures publishes every failed record of rep on its own DLQ message
func (h *SyncPageHandler) parkFailures(ctx context.Context, page *normalizer.SyncPage, rep *report.SyncReport) error {
	for _, failure := range rep.Failures {
		if failure.RecordIndex < 0 || failure.RecordIndex >= len(page.Records) {
			continue
		}
		value, err := json.Marshal(page.Records[failure.RecordIndex])
		if err != nil {
			return fmt.Errorf("failed to marshal failed record %d: %w", failure.RecordIndex, err)
		}
		if err := h.deadLetter(ctx, failure.ExternalID, value, failure.Reason, failure.Message); err != nil {
			return fmt.Errorf("failed to park record %s of sync page %s: %w", failure.ExternalID, page.SyncRunID.String(), err)
		}
	}
	return nil
}

func (h *SyncPageHandler) deadLetter(ctx context.Context, key string, value []byte, reason shared.FailureReason, detail string) error {
	if h.producer == nil {
		return errors.New("no dead letter publisher configured")
	}
	if err := h.producer.PublishToDLQ(ctx, key, value, reason, detail); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"message_key", key,
			"reason", reason,
		)
		return err
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", key, "reason", reason)
	return nil
}
