package service

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
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/subscription"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner runs fn with a nil transaction, or fails to begin with beginErr
type fakeTxRunner struct {
	beginErr error
	calls    int
}

func (r *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	r.calls++
	if r.beginErr != nil {
		return r.beginErr
	}
	return fn(nil)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, tx pgx.Tx, next *subscription.Subscription, source subscription.SourceRecord) (subscription.Transition, error) {
	args := m.Called(ctx, tx, next, source)
	return args.Get(0).(subscription.Transition), args.Error(1)
}

type MockMovementClassifier struct {
	mock.Mock
}

func (m *MockMovementClassifier) Classify(transition subscription.Transition, occurredAt time.Time, loc *time.Location) (*movement.Movement, error) {
	args := m.Called(transition, occurredAt, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

type MockLedgerWriter struct {
	mock.Mock
}

func (m *MockLedgerWriter) Apply(ctx context.Context, tx pgx.Tx, transition subscription.Transition, mv *movement.Movement, now time.Time) error {
	args := m.Called(ctx, tx, transition, mv, now)
	return args.Error(0)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, mv *movement.Movement) error {
	args := m.Called(ctx, tx, mv)
	return args.Error(0)
}

type MockCustomerManager struct {
	mock.Mock
}

func (m *MockCustomerManager) EnsureCustomer(ctx context.Context, tx pgx.Tx, organizationID uuid.UUID, externalID, name string, now time.Time) (*customer.Customer, error) {
	args := m.Called(ctx, tx, organizationID, externalID, name, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

type MockDealManager struct {
	mock.Mock
}

func (m *MockDealManager) UpsertDeal(ctx context.Context, d *deal.Deal) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type MockLocationResolver struct {
	mock.Mock
}

func (m *MockLocationResolver) Location(ctx context.Context, organizationID uuid.UUID) (*time.Location, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Location), args.Error(1)
}

type MockReportRecorder struct {
	mock.Mock
}

func (m *MockReportRecorder) RecordSyncReport(ctx context.Context, rep *report.SyncReport) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}
