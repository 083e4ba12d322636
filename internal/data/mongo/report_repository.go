package mongo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
)

const (
	// SyncReportsCollectionName holds one document per processed sync page
	SyncReportsCollectionName = "sync_reports"
	// SnapshotRunsCollectionName holds one document per scheduled snapshot pass
	SnapshotRunsCollectionName = "snapshot_runs"
)

// ReportRepository implements the report.Repository interface for MongoDB
type ReportRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewReportRepository creates a new MongoDB report repository
func NewReportRepository(logger *slog.Logger, db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the lookup indexes used by the list queries
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(SyncReportsCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "received_at", Value: -1}},
	})
	if err != nil {
		r.logger.Error("Failed to create sync report index", "error", err)
		return shared.StoreUnavailable("create sync report index", err)
	}

	_, err = r.db.Collection(SnapshotRunsCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})
	if err != nil {
		r.logger.Error("Failed to create snapshot run index", "error", err)
		return shared.StoreUnavailable("create snapshot run index", err)
	}

	return nil
}

// CreateSyncReport stores the summary of one sync page
func (r *ReportRepository) CreateSyncReport(ctx context.Context, rep *report.SyncReport) error {
	if _, err := r.db.Collection(SyncReportsCollectionName).InsertOne(ctx, rep); err != nil {
		r.logger.Error("Failed to create sync report",
			"sync_run_id", rep.SyncRunID.String(),
			"organization_id", rep.OrganizationID.String(),
			"error", err)
		return shared.StoreUnavailable("create sync report", err)
	}
	return nil
}

// ListSyncReports returns the organization's most recent sync reports, newest first
func (r *ReportRepository) ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*report.SyncReport, error) {
	filter := bson.M{"organization_id": organizationID}
	opts := options.Find().
		SetSort(bson.M{"received_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(SyncReportsCollectionName).Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list sync reports",
			"organization_id", organizationID.String(),
			"error", err)
		return nil, shared.StoreUnavailable("list sync reports", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*report.SyncReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		r.logger.Error("Failed to decode sync reports",
			"organization_id", organizationID.String(),
			"error", err)
		return nil, shared.StoreUnavailable("decode sync reports", err)
	}

	return reports, nil
}

// CreateSnapshotRun stores the summary of one snapshot pass
func (r *ReportRepository) CreateSnapshotRun(ctx context.Context, rep *report.SnapshotRunReport) error {
	if _, err := r.db.Collection(SnapshotRunsCollectionName).InsertOne(ctx, rep); err != nil {
		r.logger.Error("Failed to create snapshot run report",
			"run_id", rep.RunID.String(),
			"error", err)
		return shared.StoreUnavailable("create snapshot run report", err)
	}
	return nil
}

// ListSnapshotRuns returns the most recent snapshot passes, newest first
func (r *ReportRepository) ListSnapshotRuns(ctx context.Context, limit int) ([]*report.SnapshotRunReport, error) {
	opts := options.Find().
		SetSort(bson.M{"started_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(SnapshotRunsCollectionName).Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list snapshot runs", "error", err)
		return nil, shared.StoreUnavailable("list snapshot runs", err)
	}
	defer cursor.Close(ctx)

	runs := make([]*report.SnapshotRunReport, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		r.logger.Error("Failed to decode snapshot runs", "error", err)
		return nil, shared.StoreUnavailable("decode snapshot runs", err)
	}

	return runs, nil
}
