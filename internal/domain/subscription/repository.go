package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines subscription persistence operations
type Repository interface {
	// LockExternalID serializes reconciliation for one (organization, external id)
	// until the surrounding transaction ends. Only valid on a transactional repository.
	LockExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) error

	// GetByExternalID returns the last persisted state, or nil when the subscription was never seen
	GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*Subscription, error)

	// ClaimSourceRecord records that source is being applied. It returns false when the record
	// was applied by an earlier committed transaction. Only valid on a transactional repository.
	ClaimSourceRecord(ctx context.Context, organizationID uuid.UUID, source SourceRecord) (bool, error)

	// Upsert overwrites the stored state keyed by (organization, external id)
	Upsert(ctx context.Context, subscription *Subscription) error

	ListLive(ctx context.Context, organizationID uuid.UUID) ([]*Subscription, error)
	WithTx(tx pgx.Tx) Repository
}
