package organization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOrganizationNotFound is returned when the organization does not exist
var ErrOrganizationNotFound = errors.New("organization not found")

// Organization is the tenant all ledger data is scoped to
type Organization struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	ReportingTimezone string    `json:"reporting_timezone,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Location resolves the organization's reporting timezone. An empty or unknown zone
// falls back to fallback, and a nil fallback to UTC.
func (o *Organization) Location(fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if o == nil || o.ReportingTimezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(o.ReportingTimezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Repository defines organization lookups
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}
