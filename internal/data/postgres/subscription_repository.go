package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/platform/persistence"
)

const subscriptionColumns = `id, organization_id, customer_id, external_id, status, amount, currency,
		billing_interval, billing_interval_count, current_period_start, current_period_end,
		started_at, canceled_at, plan_name, source_updated_at, created_at, updated_at`

// SubscriptionRepository implements the subscription.Repository interface for PostgreSQL
type SubscriptionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSubscriptionRepository creates a new PostgreSQL subscription repository
func NewSubscriptionRepository(logger *slog.Logger, db *persistence.PostgresDB) subscription.Repository {
	return &SubscriptionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx. LockExternalID requires it.
func (r *SubscriptionRepository) WithTx(tx pgx.Tx) subscription.Repository {
	return &SubscriptionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// LockExternalID takes a transaction-scoped advisory lock on (organization, external id).
// The lock is released by commit or rollback.
func (r *SubscriptionRepository) LockExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	if _, err := r.querier.Exec(ctx, query, advisoryLockKey(organizationID, externalID)); err != nil {
		r.logger.Error("Failed to lock subscription",
			"organization_id", organizationID.String(),
			"external_id", externalID,
			"error", err,
		)
		return storeError("lock subscription", err)
	}
	return nil
}

func advisoryLockKey(organizationID uuid.UUID, externalID string) string {
	return "subscription:" + organizationID.String() + ":" + externalID
}

// ClaimSourceRecord inserts the (sync run, record index) key. A conflict means a committed
// transaction already applied the record.
func (r *SubscriptionRepository) ClaimSourceRecord(ctx context.Context, organizationID uuid.UUID, source subscription.SourceRecord) (bool, error) {
	query := `
		INSERT INTO applied_sync_records (sync_run_id, record_index, organization_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (sync_run_id, record_index) DO NOTHING
	`

	tag, err := r.querier.Exec(ctx, query, source.SyncRunID, source.RecordIndex, organizationID)
	if err != nil {
		r.logger.Error("Failed to claim sync record",
			"organization_id", organizationID.String(),
			"sync_run_id", source.SyncRunID.String(),
			"record_index", source.RecordIndex,
			"error", err,
		)
		return false, storeError("claim sync record", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByExternalID returns nil, nil when the subscription was never stored
func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1 AND external_id = $2
	`

	sub, err := scanSubscription(r.querier.QueryRow(ctx, query, organizationID, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription",
			"organization_id", organizationID.String(),
			"external_id", externalID,
			"error", err,
		)
		return nil, storeError("get subscription", err)
	}

	return sub, nil
}

// Upsert overwrites the stored state for (organization, external id). The row id never changes.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (organization_id, external_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			status = EXCLUDED.status,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			billing_interval = EXCLUDED.billing_interval,
			billing_interval_count = EXCLUDED.billing_interval_count,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			started_at = EXCLUDED.started_at,
			canceled_at = EXCLUDED.canceled_at,
			plan_name = EXCLUDED.plan_name,
			source_updated_at = EXCLUDED.source_updated_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		sub.ID,
		sub.OrganizationID,
		sub.CustomerID,
		sub.ExternalID,
		sub.Status,
		sub.Amount,
		sub.Currency,
		sub.BillingInterval,
		sub.BillingIntervalCount,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.StartedAt,
		sub.CanceledAt,
		sub.PlanName,
		sub.SourceUpdatedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			"organization_id", sub.OrganizationID.String(),
			"external_id", sub.ExternalID,
			"error", err,
		)
		return storeError("upsert subscription", err)
	}

	return nil
}

// ListLive returns every subscription of the organization that currently contributes to MRR
func (r *SubscriptionRepository) ListLive(ctx context.Context, organizationID uuid.UUID) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1 AND status IN ('trialing', 'active', 'past_due')
		ORDER BY external_id
	`

	rows, err := r.querier.Query(ctx, query, organizationID)
	if err != nil {
		r.logger.Error("Failed to list live subscriptions", "organization_id", organizationID.String(), "error", err)
		return nil, storeError("list live subscriptions", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			r.logger.Error("Failed to scan subscription", "error", err)
			return nil, storeError("scan subscription", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over subscriptions", "error", err)
		return nil, storeError("list live subscriptions", err)
	}

	return subs, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.OrganizationID,
		&sub.CustomerID,
		&sub.ExternalID,
		&sub.Status,
		&sub.Amount,
		&sub.Currency,
		&sub.BillingInterval,
		&sub.BillingIntervalCount,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.StartedAt,
		&sub.CanceledAt,
		&sub.PlanName,
		&sub.SourceUpdatedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
