package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/organization"
	"github.com/revenue-ledger/internal/platform/persistence"
)

// OrganizationRepository implements the organization.Repository interface for PostgreSQL
type OrganizationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOrganizationRepository creates a new PostgreSQL organization repository
func NewOrganizationRepository(logger *slog.Logger, db *persistence.PostgresDB) organization.Repository {
	return &OrganizationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID returns organization.ErrOrganizationNotFound when the id is unknown
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	query := `
		SELECT id, name, reporting_timezone, created_at
		FROM organizations
		WHERE id = $1
	`

	var org organization.Organization
	var timezone *string
	err := r.querier.QueryRow(ctx, query, id).Scan(&org.ID, &org.Name, &timezone, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organization.ErrOrganizationNotFound
		}
		r.logger.Error("Failed to get organization", "organization_id", id.String(), "error", err)
		return nil, storeError("get organization", err)
	}
	if timezone != nil {
		org.ReportingTimezone = *timezone
	}

	return &org, nil
}

// ListIDs returns every organization id in a stable order
func (r *OrganizationRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM organizations ORDER BY id`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list organizations", "error", err)
		return nil, storeError("list organizations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan organization id", "error", err)
			return nil, storeError("scan organization id", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("list organizations", err)
	}

	return ids, nil
}
