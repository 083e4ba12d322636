package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrSnapshotNotFound is returned when no snapshot exists for the requested day
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Repository defines snapshot persistence. Upserts replace the row for (organization, day).
type Repository interface {
	UpsertMrr(ctx context.Context, snapshot *MrrSnapshot) error
	GetMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*MrrSnapshot, error)
	// GetPreviousMrr returns the latest snapshot dated strictly before day, or nil
	GetPreviousMrr(ctx context.Context, organizationID uuid.UUID, day time.Time) (*MrrSnapshot, error)
	ListMrr(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*MrrSnapshot, error)
	UpsertPipeline(ctx context.Context, snapshot *PipelineSnapshot) error
	ListPipeline(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]*PipelineSnapshot, error)
	WithTx(tx pgx.Tx) Repository
}
