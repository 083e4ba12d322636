package components

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

type DealManagerImpl struct {
	dealRepo deal.Repository
	logger   *slog.Logger
}

func NewDealManager(dealRepo deal.Repository, logger *slog.Logger) service.DealManager {
	return &DealManagerImpl{
		dealRepo: dealRepo,
		logger:   logger,
	}
}

// UpsertDeal mirrors d. A deal seen for the first time gets a fresh id; the stored id wins on conflict.
func (m *DealManagerImpl) UpsertDeal(ctx context.Context, d *deal.Deal) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	if err := m.dealRepo.Upsert(ctx, d); err != nil {
		return err
	}

	m.logger.Debug("Deal mirrored",
		"organization_id", d.OrganizationID.String(),
		"external_id", d.ExternalID,
		"is_closed", d.IsClosed,
	)
	return nil
}
