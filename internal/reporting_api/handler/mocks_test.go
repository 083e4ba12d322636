package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/reporting_api/service"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) ListMovements(ctx context.Context, filter movement.Filter) ([]*movement.Movement, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*movement.Movement), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportingService) ListMrrSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.MrrSnapshot, error) {
	args := m.Called(ctx, organizationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*snapshot.MrrSnapshot), args.Error(1)
}

func (m *MockReportingService) GetMrrSnapshot(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	args := m.Called(ctx, organizationID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.MrrSnapshot), args.Error(1)
}

func (m *MockReportingService) ListPipelineSnapshots(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.PipelineSnapshot, error) {
	args := m.Called(ctx, organizationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*snapshot.PipelineSnapshot), args.Error(1)
}

func (m *MockReportingService) CheckLedger(ctx context.Context, organizationID uuid.UUID) (*service.LedgerCheck, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LedgerCheck), args.Error(1)
}

func (m *MockReportingService) ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*report.SyncReport, error) {
	args := m.Called(ctx, organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SyncReport), args.Error(1)
}

func (m *MockReportingService) ListSnapshotRuns(ctx context.Context, limit int) ([]*report.SnapshotRunReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SnapshotRunReport), args.Error(1)
}
