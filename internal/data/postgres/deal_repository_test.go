package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/shared"
)

func TestDealRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &DealRepository{querier: mock, logger: newTestLogger()}

	probability := 40
	d := &deal.Deal{ID: uuid.New(), OrganizationID: uuid.New(), ExternalID: "deal_1", Name: "Renewal", Stage: "proposal",
		Amount: 50000, Currency: "USD", Probability: &probability, UpdatedAt: time.Now().UTC()}
	query := regexp.QuoteMeta("INSERT INTO deals")
	args := []interface{}{d.ID, d.OrganizationID, d.ExternalID, d.Name, d.Stage, d.Amount, d.Currency, d.Probability, d.IsClosed, d.UpdatedAt}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		require.NoError(t, repo.Upsert(ctx, d))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(args...).WillReturnError(errors.New("db error"))
		assert.ErrorIs(t, repo.Upsert(ctx, d), shared.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDealRepository_ListOpen(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := &DealRepository{querier: mock, logger: newTestLogger()}
	orgID := uuid.New()
	now := time.Now().UTC()
	columns := []string{"id", "organization_id", "external_id", "name", "stage", "amount", "currency", "probability", "is_closed", "updated_at"}
	query := regexp.QuoteMeta("WHERE organization_id = $1 AND is_closed = FALSE")

	t.Run("success", func(t *testing.T) {
		probability := 70
		withProbability := &deal.Deal{ID: uuid.New(), OrganizationID: orgID, ExternalID: "deal_1", Amount: 10000, Currency: "USD", Probability: &probability, UpdatedAt: now}
		withoutProbability := &deal.Deal{ID: uuid.New(), OrganizationID: orgID, ExternalID: "deal_2", Amount: 20000, Currency: "USD", UpdatedAt: now}

		rows := pgxmock.NewRows(columns).
			AddRow(withProbability.ID, orgID, "deal_1", "", "", int64(10000), "USD", &probability, false, now).
			AddRow(withoutProbability.ID, orgID, "deal_2", "", "", int64(20000), "USD", (*int)(nil), false, now)
		mock.ExpectQuery(query).WithArgs(orgID).WillReturnRows(rows)

		got, err := repo.ListOpen(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, withProbability, got[0])
		assert.Equal(t, withoutProbability, got[1])
		assert.Equal(t, deal.DefaultProbability, got[1].EffectiveProbability())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(orgID).WillReturnError(errors.New("db error"))

		_, err := repo.ListOpen(ctx, orgID)
		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
