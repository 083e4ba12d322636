package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/platform/persistence"
)

// DealRepository implements the deal.Repository interface for PostgreSQL
type DealRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDealRepository creates a new PostgreSQL deal repository
func NewDealRepository(logger *slog.Logger, db *persistence.PostgresDB) deal.Repository {
	return &DealRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *DealRepository) WithTx(tx pgx.Tx) deal.Repository {
	return &DealRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Upsert mirrors a provider deal keyed by (organization, external id)
func (r *DealRepository) Upsert(ctx context.Context, d *deal.Deal) error {
	query := `
		INSERT INTO deals (id, organization_id, external_id, name, stage, amount, currency, probability, is_closed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (organization_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			stage = EXCLUDED.stage,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			probability = EXCLUDED.probability,
			is_closed = EXCLUDED.is_closed,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		d.ID,
		d.OrganizationID,
		d.ExternalID,
		d.Name,
		d.Stage,
		d.Amount,
		d.Currency,
		d.Probability,
		d.IsClosed,
		d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert deal",
			"organization_id", d.OrganizationID.String(),
			"external_id", d.ExternalID,
			"error", err,
		)
		return storeError("upsert deal", err)
	}

	return nil
}

// ListOpen returns the organization's deals that are not closed
func (r *DealRepository) ListOpen(ctx context.Context, organizationID uuid.UUID) ([]*deal.Deal, error) {
	query := `
		SELECT id, organization_id, external_id, name, stage, amount, currency, probability, is_closed, updated_at
		FROM deals
		WHERE organization_id = $1 AND is_closed = FALSE
		ORDER BY external_id
	`

	rows, err := r.querier.Query(ctx, query, organizationID)
	if err != nil {
		r.logger.Error("Failed to list open deals", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("list open deals", err)
	}
	defer rows.Close()

	var deals []*deal.Deal
	for rows.Next() {
		var d deal.Deal
		err := rows.Scan(
			&d.ID,
			&d.OrganizationID,
			&d.ExternalID,
			&d.Name,
			&d.Stage,
			&d.Amount,
			&d.Currency,
			&d.Probability,
			&d.IsClosed,
			&d.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan deal", "error", err)
			return nil, storeError("scan deal", err)
		}
		deals = append(deals, &d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over deals", "error", err)
		return nil, storeError("list open deals", err)
	}

	return deals, nil
}
