package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/platform/persistence"
)

// CustomerRepository implements the customer.Repository interface for PostgreSQL
type CustomerRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(logger *slog.Logger, db *persistence.PostgresDB) customer.Repository {
	return &CustomerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *CustomerRepository) WithTx(tx pgx.Tx) customer.Repository {
	return &CustomerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Ensure inserts the customer or refreshes the stored name. An empty incoming name keeps the stored one.
func (r *CustomerRepository) Ensure(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	query := `
		INSERT INTO customers (id, organization_id, external_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, external_id)
		DO UPDATE SET name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name), updated_at = EXCLUDED.updated_at
		RETURNING id, name, created_at, updated_at
	`

	stored := *c
	err := r.querier.QueryRow(ctx, query,
		c.ID,
		c.OrganizationID,
		c.ExternalID,
		c.Name,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&stored.ID, &stored.Name, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to ensure customer",
			"organization_id", c.OrganizationID.String(),
			"external_id", c.ExternalID,
			"error", err,
		)
		return nil, storeError("ensure customer", err)
	}

	return &stored, nil
}

// GetByExternalID returns nil, nil when the customer does not exist
func (r *CustomerRepository) GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*customer.Customer, error) {
	query := `
		SELECT id, organization_id, external_id, name, created_at, updated_at
		FROM customers
		WHERE organization_id = $1 AND external_id = $2
	`

	var c customer.Customer
	err := r.querier.QueryRow(ctx, query, organizationID, externalID).Scan(
		&c.ID,
		&c.OrganizationID,
		&c.ExternalID,
		&c.Name,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer",
			"organization_id", organizationID.String(),
			"external_id", externalID,
			"error", err,
		)
		return nil, storeError("get customer", err)
	}

	return &c, nil
}
