package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

type CustomerManagerImpl struct {
	customerRepo customer.Repository
	logger       *slog.Logger
}

func NewCustomerManager(customerRepo customer.Repository, logger *slog.Logger) service.CustomerManager {
	return &CustomerManagerImpl{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// EnsureCustomer creates the customer on first reference and refreshes a non-empty name afterwards
func (m *CustomerManagerImpl) EnsureCustomer(ctx context.Context, tx pgx.Tx, organizationID uuid.UUID, externalID, name string, now time.Time) (*customer.Customer, error) {
	if externalID == "" {
		return nil, shared.MalformedInputError{Field: "customer_external_id", Reason: "required"}
	}

	stored, err := m.customerRepo.WithTx(tx).Ensure(ctx, customer.NewCustomer(organizationID, externalID, name, now))
	if err != nil {
		m.logger.Error("Failed to ensure customer",
			"organization_id", organizationID.String(),
			"customer_external_id", externalID,
			"error", err,
		)
		return nil, err
	}

	return stored, nil
}
