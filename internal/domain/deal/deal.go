package deal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultProbability is applied to open deals that carry no win probability
const DefaultProbability = 10

// Deal is a CRM opportunity mirrored from the provider
type Deal struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	Stage          string    `json:"stage"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Probability    *int      `json:"probability,omitempty"`
	IsClosed       bool      `json:"is_closed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EffectiveProbability returns the deal's probability, or DefaultProbability when unset
func (d *Deal) EffectiveProbability() int {
	if d.Probability == nil {
		return DefaultProbability
	}
	return *d.Probability
}

// Repository defines deal persistence operations
type Repository interface {
	Upsert(ctx context.Context, deal *Deal) error
	ListOpen(ctx context.Context, organizationID uuid.UUID) ([]*Deal, error)
	WithTx(tx pgx.Tx) Repository
}
