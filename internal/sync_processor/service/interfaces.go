package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
)

// ProcessingService applies one provider sync page to the ledger.
// The returned report lists per-record failures; an error means the page as a whole was not applied.
type ProcessingService interface {
	ProcessPage(ctx context.Context, page *normalizer.SyncPage) (*report.SyncReport, error)
}

// TxRunner runs fn in one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Reconciler serializes on the subscription's external id, applies each source record at most
// once and diffs next against the stored copy
type Reconciler interface {
	Reconcile(ctx context.Context, tx pgx.Tx, next *subscription.Subscription, source subscription.SourceRecord) (subscription.Transition, error)
}

// MovementClassifier maps a transition to at most one movement
type MovementClassifier interface {
	Classify(transition subscription.Transition, occurredAt time.Time, loc *time.Location) (*movement.Movement, error)
}

// LedgerWriter persists the subscription's new state and its movement, if any, inside tx
type LedgerWriter interface {
	Apply(ctx context.Context, tx pgx.Tx, transition subscription.Transition, m *movement.Movement, now time.Time) error
}

// OutboxManager queues a movement event in the same transaction as the movement
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, m *movement.Movement) error
}

// CustomerManager mirrors the customer a subscription references
type CustomerManager interface {
	EnsureCustomer(ctx context.Context, tx pgx.Tx, organizationID uuid.UUID, externalID, name string, now time.Time) (*customer.Customer, error)
}

// DealManager mirrors provider deals for the pipeline forecast
type DealManager interface {
	UpsertDeal(ctx context.Context, d *deal.Deal) error
}

// LocationResolver returns the organization's reporting timezone
type LocationResolver interface {
	Location(ctx context.Context, organizationID uuid.UUID) (*time.Location, error)
}

// ReportRecorder stores the summary of a processed page
type ReportRecorder interface {
	RecordSyncReport(ctx context.Context, rep *report.SyncReport) error
}

// GroupExecutor runs groups of page record indices. Records inside one group run in order;
// distinct groups may run concurrently. Execute returns once every submitted group finished.
type GroupExecutor interface {
	Execute(ctx context.Context, groups [][]int, fn func(ctx context.Context, index int)) error
}
