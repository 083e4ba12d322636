package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
)

type recordOutcome int

const (
	outcomeFailed recordOutcome = iota
	outcomeUnchanged
	outcomeSkipped
	outcomeStored
	outcomeMovement
	outcomeDeal
)

type recordResult struct {
	outcome recordOutcome
	err     error
}

type ProcessingServiceImpl struct {
	txRunner        TxRunner
	normalizer      normalizer.Normalizer
	reconciler      Reconciler
	classifier      MovementClassifier
	ledgerWriter    LedgerWriter
	outboxManager   OutboxManager
	customerManager CustomerManager
	dealManager     DealManager
	locations       LocationResolver
	reportRecorder  ReportRecorder
	executor        GroupExecutor
	logger          *slog.Logger
	now             func() time.Time
}

func NewProcessingService(
	txRunner TxRunner,
	norm normalizer.Normalizer,
	reconciler Reconciler,
	classifier MovementClassifier,
	ledgerWriter LedgerWriter,
	outboxManager OutboxManager,
	customerManager CustomerManager,
	dealManager DealManager,
	locations LocationResolver,
	reportRecorder ReportRecorder,
	executor GroupExecutor,
	logger *slog.Logger,
) *ProcessingServiceImpl {
	return &ProcessingServiceImpl{
		txRunner:        txRunner,
		normalizer:      norm,
		reconciler:      reconciler,
		classifier:      classifier,
		ledgerWriter:    ledgerWriter,
		outboxManager:   outboxManager,
		customerManager: customerManager,
		dealManager:     dealManager,
		locations:       locations,
		reportRecorder:  reportRecorder,
		executor:        executor,
		logger:          logger,
		now:             time.Now,
	}
}

// ProcessPage applies every record of the page. A failing record never stops the others;
// its failure is collected in the report. Records sharing an external id are applied in page order.
func (s *ProcessingServiceImpl) ProcessPage(ctx context.Context, page *normalizer.SyncPage) (*report.SyncReport, error) {
	if err := s.normalizer.Page(page); err != nil {
		s.logger.Warn("Rejected malformed sync page", "error", err)
		return nil, err
	}

	logger := s.logger.With(
		"sync_run_id", page.SyncRunID.String(),
		"organization_id", page.OrganizationID.String(),
	)
	logger.Info("Processing sync page", "provider", page.Provider, "records", len(page.Records))

	loc, err := s.locations.Location(ctx, page.OrganizationID)
	if err != nil {
		logger.Error("Failed to resolve reporting timezone", "error", err)
		return nil, err
	}

	rep := &report.SyncReport{
		SyncRunID:      page.SyncRunID,
		OrganizationID: page.OrganizationID,
		Provider:       page.Provider,
		ReceivedAt:     s.now().UTC(),
		Failures:       []report.RecordFailure{},
	}

	results := make([]recordResult, len(page.Records))
	err = s.executor.Execute(ctx, groupByExternalID(page.Records), func(ctx context.Context, index int) {
		source := subscription.SourceRecord{SyncRunID: page.SyncRunID, RecordIndex: index}
		results[index] = s.processRecord(ctx, page.OrganizationID, loc, source, page.Records[index], logger)
	})
	if err != nil {
		logger.Error("Failed to execute sync page", "error", err)
		return nil, fmt.Errorf("failed to execute sync page %s: %w", page.SyncRunID.String(), err)
	}

	for i, res := range results {
		switch res.outcome {
		case outcomeUnchanged:
			rep.Unchanged++
		case outcomeSkipped:
			rep.Skipped++
		case outcomeMovement:
			rep.Movements++
		case outcomeDeal:
			rep.DealsUpserted++
		}
		if res.err != nil {
			record := page.Records[i]
			rep.Failures = append(rep.Failures, report.RecordFailure{
				RecordIndex: i,
				Kind:        record.Kind,
				ExternalID:  record.ExternalID(),
				Reason:      shared.FailureReasonOf(res.err),
				Message:     res.err.Error(),
			})
			continue
		}
		rep.Processed++
	}
	rep.CompletedAt = s.now().UTC()

	if err := s.reportRecorder.RecordSyncReport(ctx, rep); err != nil {
		logger.Error("Failed to record sync report", "error", err)
	}

	logger.Info("Sync page processed",
		"processed", rep.Processed,
		"unchanged", rep.Unchanged,
		"skipped", rep.Skipped,
		"movements", rep.Movements,
		"deals", rep.DealsUpserted,
		"failures", len(rep.Failures),
	)
	return rep, nil
}

func (s *ProcessingServiceImpl) processRecord(ctx context.Context, organizationID uuid.UUID, loc *time.Location, source subscription.SourceRecord, record normalizer.Record, logger *slog.Logger) recordResult {
	switch record.Kind {
	case shared.RecordKindSubscription:
		if record.Subscription == nil {
			return recordResult{err: shared.MalformedInputError{Field: "subscription", Reason: "required"}}
		}
		return s.processSubscription(ctx, organizationID, loc, source, record.Subscription, logger)
	case shared.RecordKindDeal:
		if record.Deal == nil {
			return recordResult{err: shared.MalformedInputError{Field: "deal", Reason: "required"}}
		}
		return s.processDeal(ctx, organizationID, record.Deal, logger)
	default:
		return recordResult{err: shared.MalformedInputError{Field: "kind", Reason: fmt.Sprintf("unknown record kind %q", record.Kind)}}
	}
}

// processSubscription runs reconcile, classify and persist in one transaction holding the
// external id lock, so transitions of one subscription are applied strictly in order.
// The source claim commits with the movement, so a redelivered record is skipped.
func (s *ProcessingServiceImpl) processSubscription(ctx context.Context, organizationID uuid.UUID, loc *time.Location, source subscription.SourceRecord, record *normalizer.SubscriptionRecord, logger *slog.Logger) recordResult {
	logger = logger.With("external_id", record.ExternalID)

	normalized, err := s.normalizer.Subscription(organizationID, record)
	if err != nil {
		logger.Warn("Rejected malformed subscription record", "error", err)
		return recordResult{err: err}
	}

	now := s.now().UTC()
	result := recordResult{}
	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transition, err := s.reconciler.Reconcile(ctx, tx, normalized.Subscription, source)
		if err != nil {
			return err
		}
		if transition.Kind == subscription.TransitionUnchanged {
			result.outcome = outcomeUnchanged
			return nil
		}
		if !transition.Kind.Applies() {
			logger.Info("Skipping subscription record", "transition", transition.Kind)
			result.outcome = outcomeSkipped
			return nil
		}

		cust, err := s.customerManager.EnsureCustomer(ctx, tx, organizationID, normalized.CustomerExternalID, normalized.CustomerName, now)
		if err != nil {
			return err
		}
		transition.Next.CustomerID = cust.ID

		m, err := s.classifier.Classify(transition, now, loc)
		if err != nil {
			return err
		}

		if err := s.ledgerWriter.Apply(ctx, tx, transition, m, now); err != nil {
			return err
		}
		if m == nil {
			result.outcome = outcomeStored
			return nil
		}

		if err := s.outboxManager.CreateOutboxEntry(ctx, tx, m); err != nil {
			return err
		}
		result.outcome = outcomeMovement
		return nil
	})
	if err != nil {
		logger.Error("Failed to apply subscription record", "reason", shared.FailureReasonOf(err), "error", err)
		return recordResult{err: err}
	}

	return result
}

func (s *ProcessingServiceImpl) processDeal(ctx context.Context, organizationID uuid.UUID, record *normalizer.DealRecord, logger *slog.Logger) recordResult {
	logger = logger.With("external_id", record.ExternalID)

	d, err := s.normalizer.Deal(organizationID, record)
	if err != nil {
		logger.Warn("Rejected malformed deal record", "error", err)
		return recordResult{err: err}
	}
	d.UpdatedAt = s.now().UTC()

	if err := s.dealManager.UpsertDeal(ctx, d); err != nil {
		logger.Error("Failed to upsert deal", "error", err)
		return recordResult{err: err}
	}
	return recordResult{outcome: outcomeDeal}
}

// groupByExternalID groups record indices by (kind, external id) in first-seen order.
// Records without an external id form their own group.
func groupByExternalID(records []normalizer.Record) [][]int {
	type key struct {
		kind       shared.RecordKind
		externalID string
	}

	groups := make([][]int, 0, len(records))
	positions := make(map[key]int, len(records))
	for i, record := range records {
		k := key{kind: record.Kind, externalID: record.ExternalID()}
		if k.externalID == "" {
			groups = append(groups, []int{i})
			continue
		}
		if pos, ok := positions[k]; ok {
			groups[pos] = append(groups[pos], i)
			continue
		}
		positions[k] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}
