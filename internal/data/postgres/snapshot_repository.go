package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/platform/persistence"
)

const mrrColumns = `organization_id, snapshot_date, total_mrr, total_customers, new_mrr, expansion_mrr,
		contraction_mrr, churn_mrr, reactivation_mrr`

// SnapshotRepository implements the snapshot.Repository interface for PostgreSQL
type SnapshotRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(logger *slog.Logger, db *persistence.PostgresDB) snapshot.Repository {
	return &SnapshotRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *SnapshotRepository) WithTx(tx pgx.Tx) snapshot.Repository {
	return &SnapshotRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// UpsertMrr writes the snapshot for (organization, day), replacing any previous content in one statement
func (r *SnapshotRepository) UpsertMrr(ctx context.Context, s *snapshot.MrrSnapshot) error {
	query := `
		INSERT INTO mrr_snapshots (` + mrrColumns + `, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (organization_id, snapshot_date) DO UPDATE SET
			total_mrr = EXCLUDED.total_mrr,
			total_customers = EXCLUDED.total_customers,
			new_mrr = EXCLUDED.new_mrr,
			expansion_mrr = EXCLUDED.expansion_mrr,
			contraction_mrr = EXCLUDED.contraction_mrr,
			churn_mrr = EXCLUDED.churn_mrr,
			reactivation_mrr = EXCLUDED.reactivation_mrr,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.querier.Exec(ctx, query,
		s.OrganizationID,
		s.SnapshotDate,
		s.TotalMrr,
		s.TotalCustomers,
		s.NewMrr,
		s.ExpansionMrr,
		s.ContractionMrr,
		s.ChurnMrr,
		s.ReactivationMrr,
	)
	if err != nil {
		r.logger.Error("Failed to upsert MRR snapshot",
			"organization_id", s.OrganizationID.String(),
			"snapshot_date", s.SnapshotDate.Format(shared.DateFormat),
			"error", err,
		)
		return storeError("upsert mrr snapshot", err)
	}

	return nil
}

// GetMrr returns snapshot.ErrSnapshotNotFound when the day was never snapshotted
func (r *SnapshotRepository) GetMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	query := `
		SELECT ` + mrrColumns + `
		FROM mrr_snapshots
		WHERE organization_id = $1 AND snapshot_date = $2
	`

	s, err := scanMrrSnapshot(r.querier.QueryRow(ctx, query, organizationID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, snapshot.ErrSnapshotNotFound
		}
		r.logger.Error("Failed to get MRR snapshot", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("get mrr snapshot", err)
	}

	return s, nil
}

// GetPreviousMrr returns the latest snapshot strictly before day, or nil when there is none
func (r *SnapshotRepository) GetPreviousMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*snapshot.MrrSnapshot, error) {
	query := `
		SELECT ` + mrrColumns + `
		FROM mrr_snapshots
		WHERE organization_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	s, err := scanMrrSnapshot(r.querier.QueryRow(ctx, query, organizationID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get previous MRR snapshot", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("get previous mrr snapshot", err)
	}

	return s, nil
}

// ListMrr returns snapshots within [from, to], oldest first
func (r *SnapshotRepository) ListMrr(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.MrrSnapshot, error) {
	query := `
		SELECT ` + mrrColumns + `
		FROM mrr_snapshots
		WHERE organization_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date ASC
	`

	rows, err := r.querier.Query(ctx, query, organizationID, from, to)
	if err != nil {
		r.logger.Error("Failed to list MRR snapshots", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("list mrr snapshots", err)
	}
	defer rows.Close()

	snapshots := make([]*snapshot.MrrSnapshot, 0)
	for rows.Next() {
		s, err := scanMrrSnapshot(rows)
		if err != nil {
			r.logger.Error("Failed to scan MRR snapshot", "error", err)
			return nil, storeError("scan mrr snapshot", err)
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list mrr snapshots", err)
	}

	return snapshots, nil
}

// UpsertPipeline writes the pipeline snapshot for (organization, day)
func (r *SnapshotRepository) UpsertPipeline(ctx context.Context, s *snapshot.PipelineSnapshot) error {
	query := `
		INSERT INTO pipeline_snapshots (organization_id, snapshot_date, total_value, weighted_value, deal_count, computed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (organization_id, snapshot_date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			weighted_value = EXCLUDED.weighted_value,
			deal_count = EXCLUDED.deal_count,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.querier.Exec(ctx, query, s.OrganizationID, s.SnapshotDate, s.TotalValue, s.WeightedValue, s.DealCount)
	if err != nil {
		r.logger.Error("Failed to upsert pipeline snapshot",
			"organization_id", s.OrganizationID.String(),
			"snapshot_date", s.SnapshotDate.Format(shared.DateFormat),
			"error", err,
		)
		return storeError("upsert pipeline snapshot", err)
	}

	return nil
}

// ListPipeline returns pipeline snapshots within [from, to], oldest first
func (r *SnapshotRepository) ListPipeline(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*snapshot.PipelineSnapshot, error) {
	query := `
		SELECT organization_id, snapshot_date, total_value, weighted_value, deal_count
		FROM pipeline_snapshots
		WHERE organization_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date ASC
	`

	rows, err := r.querier.Query(ctx, query, organizationID, from, to)
	if err != nil {
		r.logger.Error("Failed to list pipeline snapshots", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("list pipeline snapshots", err)
	}
	defer rows.Close()

	snapshots := make([]*snapshot.PipelineSnapshot, 0)
	for rows.Next() {
		var s snapshot.PipelineSnapshot
		if err := rows.Scan(&s.OrganizationID, &s.SnapshotDate, &s.TotalValue, &s.WeightedValue, &s.DealCount); err != nil {
			r.logger.Error("Failed to scan pipeline snapshot", "error", err)
			return nil, storeError("scan pipeline snapshot", err)
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list pipeline snapshots", err)
	}

	return snapshots, nil
}

func scanMrrSnapshot(row pgx.Row) (*snapshot.MrrSnapshot, error) {
	var s snapshot.MrrSnapshot
	err := row.Scan(
		&s.OrganizationID,
		&s.SnapshotDate,
		&s.TotalMrr,
		&s.TotalCustomers,
		&s.NewMrr,
		&s.ExpansionMrr,
		&s.ContractionMrr,
		&s.ChurnMrr,
		&s.ReactivationMrr,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
