package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/platform/persistence"
)

// MovementRepository implements the movement.Repository interface for PostgreSQL.
// The movements table is append-only; this repository never updates or deletes rows.
type MovementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository
func NewMovementRepository(logger *slog.Logger, db *persistence.PostgresDB) movement.Repository {
	return &MovementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *MovementRepository) WithTx(tx pgx.Tx) movement.Repository {
	return &MovementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends one movement
func (r *MovementRepository) Create(ctx context.Context, m *movement.Movement) error {
	query := `
		INSERT INTO movements (id, organization_id, subscription_id, customer_id, type, amount_delta_monthly, occurred_at, period_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		m.ID,
		m.OrganizationID,
		m.SubscriptionID,
		m.CustomerID,
		m.Type,
		m.AmountDeltaMonthly,
		m.OccurredAt,
		m.PeriodKey,
	)
	if err != nil {
		r.logger.Error("Failed to create movement",
			"organization_id", m.OrganizationID.String(),
			"subscription_id", m.SubscriptionID.String(),
			"error", err,
		)
		return storeError("create movement", err)
	}

	return nil
}

// SumByTypeForPeriod returns per-type magnitudes of the movements attributed to periodKey
func (r *MovementRepository) SumByTypeForPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (movement.Totals, error) {
	query := `
		SELECT type, COALESCE(SUM(ABS(amount_delta_monthly)), 0)
		FROM movements
		WHERE organization_id = $1 AND period_key = $2
		GROUP BY type
	`

	var totals movement.Totals
	rows, err := r.querier.Query(ctx, query, organizationID, periodKey)
	if err != nil {
		r.logger.Error("Failed to sum movements", "organization_id", organizationID.String(), "error", err)
		return totals, storeError("sum movements by type", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movementType movement.Type
		var magnitude int64
		if err := rows.Scan(&movementType, &magnitude); err != nil {
			r.logger.Error("Failed to scan movement sum", "error", err)
			return movement.Totals{}, storeError("scan movement sum", err)
		}
		totals.Add(movementType, magnitude)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over movement sums", "error", err)
		return movement.Totals{}, storeError("sum movements by type", err)
	}

	return totals, nil
}

// SumDeltas returns the signed sum of all movements that occurred at or before upTo
func (r *MovementRepository) SumDeltas(ctx context.Context, organizationID uuid.UUID, upTo time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_delta_monthly), 0)
		FROM movements
		WHERE organization_id = $1 AND occurred_at <= $2
	`

	var sum int64
	if err := r.querier.QueryRow(ctx, query, organizationID, upTo).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum movement deltas", "organization_id", organizationID.String(), "error", err)
		return 0, storeError("sum movement deltas", err)
	}

	return sum, nil
}

// SumDeltasAfterPeriod returns the signed sum and count of movements with a later period key
func (r *MovementRepository) SumDeltasAfterPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_delta_monthly), 0), COUNT(*)
		FROM movements
		WHERE organization_id = $1 AND period_key > $2
	`

	var sum, count int64
	if err := r.querier.QueryRow(ctx, query, organizationID, periodKey).Scan(&sum, &count); err != nil {
		r.logger.Error("Failed to sum later movement deltas", "organization_id", organizationID.String(), "error", err)
		return 0, 0, storeError("sum later movement deltas", err)
	}

	return sum, count, nil
}

func (r *MovementRepository) CountCustomersWithMrr(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT customer_id
			FROM movements
			WHERE organization_id = $1 AND period_key <= $2
			GROUP BY customer_id
			HAVING SUM(amount_delta_monthly) > 0
		) paying
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, organizationID, periodKey).Scan(&count); err != nil {
		r.logger.Error("Failed to count paying customers", "organization_id", organizationID.String(), "error", err)
		return 0, storeError("count paying customers", err)
	}

	return count, nil
}

// List returns movements matching filter, newest first
func (r *MovementRepository) List(ctx context.Context, filter movement.Filter) ([]*movement.Movement, error) {
	where, args := movementWhere(filter)
	query := `
		SELECT id, organization_id, subscription_id, customer_id, type, amount_delta_monthly, occurred_at, period_key
		FROM movements
		WHERE ` + where + `
		ORDER BY occurred_at DESC, id
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list movements", "organization_id", filter.OrganizationID.String(), "error", err)
		return nil, storeError("list movements", err)
	}
	defer rows.Close()

	movements := make([]*movement.Movement, 0)
	for rows.Next() {
		var m movement.Movement
		err := rows.Scan(
			&m.ID,
			&m.OrganizationID,
			&m.SubscriptionID,
			&m.CustomerID,
			&m.Type,
			&m.AmountDeltaMonthly,
			&m.OccurredAt,
			&m.PeriodKey,
		)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, storeError("scan movement", err)
		}
		movements = append(movements, &m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over movements", "error", err)
		return nil, storeError("list movements", err)
	}

	return movements, nil
}

// Count returns the number of movements matching filter, ignoring Limit and Offset
func (r *MovementRepository) Count(ctx context.Context, filter movement.Filter) (int64, error) {
	where, args := movementWhere(filter)
	query := `SELECT COUNT(*) FROM movements WHERE ` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count movements", "organization_id", filter.OrganizationID.String(), "error", err)
		return 0, storeError("count movements", err)
	}

	return count, nil
}

func movementWhere(filter movement.Filter) (string, []interface{}) {
	clauses := []string{"organization_id = $1"}
	args := []interface{}{filter.OrganizationID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, fmt.Sprintf("period_key >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, fmt.Sprintf("period_key <= $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}
