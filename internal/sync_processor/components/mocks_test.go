package components

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/organization"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockSubscriptionRepo struct {
	mock.Mock
}

func (m *MockSubscriptionRepo) LockExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) error {
	args := m.Called(ctx, organizationID, externalID)
	return args.Error(0)
}

func (m *MockSubscriptionRepo) ClaimSourceRecord(ctx context.Context, organizationID uuid.UUID, source subscription.SourceRecord) (bool, error) {
	args := m.Called(ctx, organizationID, source)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepo) GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, organizationID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, s *subscription.Subscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubscriptionRepo) ListLive(ctx context.Context, organizationID uuid.UUID) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) WithTx(tx pgx.Tx) subscription.Repository {
	return m
}

type MockMovementRepo struct {
	mock.Mock
}

func (m *MockMovementRepo) Create(ctx context.Context, mv *movement.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepo) SumByTypeForPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (movement.Totals, error) {
	args := m.Called(ctx, organizationID, periodKey)
	return args.Get(0).(movement.Totals), args.Error(1)
}

func (m *MockMovementRepo) SumDeltas(ctx context.Context, organizationID uuid.UUID, upTo time.Time) (int64, error) {
	args := m.Called(ctx, organizationID, upTo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepo) SumDeltasAfterPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int64, int64, error) {
	args := m.Called(ctx, organizationID, periodKey)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockMovementRepo) CountCustomersWithMrr(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int, error) {
	args := m.Called(ctx, organizationID, periodKey)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepo) List(ctx context.Context, filter movement.Filter) ([]*movement.Movement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementRepo) Count(ctx context.Context, filter movement.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepo) WithTx(tx pgx.Tx) movement.Repository {
	return m
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByMovementID(ctx context.Context, movementID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Ensure(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*customer.Customer, error) {
	args := m.Called(ctx, organizationID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) WithTx(tx pgx.Tx) customer.Repository {
	return m
}

type MockDealRepo struct {
	mock.Mock
}

func (m *MockDealRepo) Upsert(ctx context.Context, d *deal.Deal) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDealRepo) ListOpen(ctx context.Context, organizationID uuid.UUID) ([]*deal.Deal, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*deal.Deal), args.Error(1)
}

func (m *MockDealRepo) WithTx(tx pgx.Tx) deal.Repository {
	return m
}

type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) CreateSyncReport(ctx context.Context, rep *report.SyncReport) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockReportRepo) ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*report.SyncReport, error) {
	args := m.Called(ctx, organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SyncReport), args.Error(1)
}

func (m *MockReportRepo) CreateSnapshotRun(ctx context.Context, rep *report.SnapshotRunReport) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockReportRepo) ListSnapshotRuns(ctx context.Context, limit int) ([]*report.SnapshotRunReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SnapshotRunReport), args.Error(1)
}
