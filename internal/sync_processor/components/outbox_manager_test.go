package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/shared"
)

func TestOutboxManager_CreateOutboxEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	mv := movement.NewMovement(uuid.New(), uuid.New(), uuid.New(), movement.TypeExpansion, 5000, now, shared.DayKey(now, time.UTC))

	matchesMovement := mock.MatchedBy(func(msg *outbox.Message) bool {
		return msg.MovementID == mv.ID &&
			msg.OrganizationID == mv.OrganizationID &&
			msg.Status == shared.OutboxStatusPending &&
			len(msg.Payload) > 0
	})

	t.Run("success", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		manager := NewOutboxManager(repo, newTestLogger())
		repo.On("Create", mock.Anything, matchesMovement).Return(nil).Once()

		assert.NoError(t, manager.CreateOutboxEntry(ctx, nil, mv))
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		manager := NewOutboxManager(repo, newTestLogger())
		repoErr := shared.StoreUnavailable("create outbox message", errors.New("db error"))
		repo.On("Create", mock.Anything, matchesMovement).Return(repoErr).Once()

		err := manager.CreateOutboxEntry(ctx, nil, mv)

		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
		repo.AssertExpectations(t)
	})
}
