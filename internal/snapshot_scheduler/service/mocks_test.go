package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/domain/subscription"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner runs fn without a real transaction and records the options used
type fakeTxRunner struct {
	beginErr error
	opts     []pgx.TxOptions
}

func (f *fakeTxRunner) ExecuteTxWithOptions(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	f.opts = append(f.opts, opts)
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(nil)
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

type MockSnapshotRepo struct {
	mock.Mock
}

func (m *MockSnapshotRepo) UpsertMrr(ctx context.Context, s *snapshot.MrrSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotRepo) GetMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	args := m.Called(ctx, organizationID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.MrrSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) GetPreviousMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	args := m.Called(ctx, organizationID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.MrrSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) ListMrr(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.MrrSnapshot, error) {
	args := m.Called(ctx, organizationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*snapshot.MrrSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) UpsertPipeline(ctx context.Context, s *snapshot.PipelineSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotRepo) ListPipeline(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.PipelineSnapshot, error) {
	args := m.Called(ctx, organizationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*snapshot.PipelineSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) WithTx(tx pgx.Tx) snapshot.Repository {
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
