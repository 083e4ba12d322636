package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows a movement listing. From and To are inclusive day keys; zero values are open.
type Filter struct {
	OrganizationID uuid.UUID
	From           time.Time
	To             time.Time
	Type           Type
	Limit          int
	Offset         int
}

// Repository defines movement persistence. Movements are append-only.
type Repository interface {
	Create(ctx context.Context, movement *Movement) error
	SumByTypeForPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (Totals, error)
	// SumDeltas returns the signed sum of all movements that occurred at or before upTo
	SumDeltas(ctx context.Context, organizationID uuid.UUID, upTo time.Time) (int64, error)
	// SumDeltasAfterPeriod returns the signed sum and the number of movements attributed to
	// days after periodKey
	SumDeltasAfterPeriod(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int64, int64, error)
	// CountCustomersWithMrr counts customers whose movements up to and including periodKey
	// net to a positive monthly amount
	CountCustomersWithMrr(ctx context.Context, organizationID uuid.UUID, periodKey time.Time) (int, error)
	List(ctx context.Context, filter Filter) ([]*Movement, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	WithTx(tx pgx.Tx) Repository
}
