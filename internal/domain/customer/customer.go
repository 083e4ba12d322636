package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Customer is the organization-scoped identity mirrored from the billing provider.
// The engine creates customers on first sync reference and never deletes them.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCustomer creates a customer for the given organization and provider id
func NewCustomer(organizationID uuid.UUID, externalID, name string, now time.Time) *Customer {
	return &Customer{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		ExternalID:     externalID,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Repository defines customer persistence operations
type Repository interface {
	// Ensure inserts the customer or refreshes the name of the existing one with the
	// same (organization, external id). The stored row is returned, so callers must
	// use its ID rather than the one they generated.
	Ensure(ctx context.Context, customer *Customer) (*Customer, error)
	GetByExternalID(ctx context.Context, organizationID uuid.UUID, externalID string) (*Customer, error)
	WithTx(tx pgx.Tx) Repository
}
