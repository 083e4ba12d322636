package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/organization"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// OrganizationLocationResolver reads the reporting timezone fresh from the organization on every call
type OrganizationLocationResolver struct {
	organizationRepo organization.Repository
	fallback         *time.Location
	logger           *slog.Logger
}

func NewLocationResolver(organizationRepo organization.Repository, fallback *time.Location, logger *slog.Logger) service.LocationResolver {
	if fallback == nil {
		fallback = time.UTC
	}
	return &OrganizationLocationResolver{
		organizationRepo: organizationRepo,
		fallback:         fallback,
		logger:           logger,
	}
}

// Location falls back to the configured default when the organization is unknown or has no valid zone
func (r *OrganizationLocationResolver) Location(ctx context.Context, organizationID uuid.UUID) (*time.Location, error) {
	org, err := r.organizationRepo.GetByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, organization.ErrOrganizationNotFound) {
			r.logger.Warn("Organization not found, using default reporting timezone",
				"organization_id", organizationID.String(),
				"timezone", r.fallback.String(),
			)
			return r.fallback, nil
		}
		return nil, err
	}

	loc := org.Location(r.fallback)
	if org.ReportingTimezone != "" && loc.String() != org.ReportingTimezone {
		r.logger.Warn("Invalid organization reporting timezone, using default",
			"organization_id", organizationID.String(),
			"reporting_timezone", org.ReportingTimezone,
			"timezone", loc.String(),
		)
	}
	return loc, nil
}
