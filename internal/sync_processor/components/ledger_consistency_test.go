package components

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

type externalKey struct {
	organizationID uuid.UUID
	externalID     string
}

// memoryLedger holds the rows the repositories below write. Its tx runner restores
// the rows when fn fails, so a failed record commits nothing.
type memoryLedger struct {
	subscriptions map[externalKey]subscription.Subscription
	claims        map[subscription.SourceRecord]uuid.UUID
	customers     map[externalKey]customer.Customer
	movements     []movement.Movement
	outbox        []outbox.Message
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		subscriptions: map[externalKey]subscription.Subscription{},
		claims:        map[subscription.SourceRecord]uuid.UUID{},
		customers:     map[externalKey]customer.Customer{},
	}
}

func (l *memoryLedger) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	subs := make(map[externalKey]subscription.Subscription, len(l.subscriptions))
	for k, v := range l.subscriptions {
		subs[k] = v
	}
	claims := make(map[subscription.SourceRecord]uuid.UUID, len(l.claims))
	for k, v := range l.claims {
		claims[k] = v
	}
	customers := make(map[externalKey]customer.Customer, len(l.customers))
	for k, v := range l.customers {
		customers[k] = v
	}
	movements, messages := len(l.movements), len(l.outbox)

	if err := fn(nil); err != nil {
		l.subscriptions, l.claims, l.customers = subs, claims, customers
		l.movements, l.outbox = l.movements[:movements], l.outbox[:messages]
		return err
	}
	return nil
}

func (l *memoryLedger) deltaSum() int64 {
	var sum int64
	for _, m := range l.movements {
		sum += m.AmountDeltaMonthly
	}
	return sum
}

func (l *memoryLedger) movementTypes() []movement.Type {
	types := make([]movement.Type, 0, len(l.movements))
	for _, m := range l.movements {
		types = append(types, m.Type)
	}
	return types
}

type memorySubscriptionRepo struct{ ledger *memoryLedger }

func (r memorySubscriptionRepo) LockExternalID(context.Context, uuid.UUID, string) error {
	return nil
}

func (r memorySubscriptionRepo) ClaimSourceRecord(_ context.Context, organizationID uuid.UUID, source subscription.SourceRecord) (bool, error) {
	if _, ok := r.ledger.claims[source]; ok {
		return false, nil
	}
	r.ledger.claims[source] = organizationID
	return true, nil
}

func (r memorySubscriptionRepo) GetByExternalID(_ context.Context, organizationID uuid.UUID, externalID string) (*subscription.Subscription, error) {
	stored, ok := r.ledger.subscriptions[externalKey{organizationID, externalID}]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

func (r memorySubscriptionRepo) Upsert(_ context.Context, s *subscription.Subscription) error {
	r.ledger.subscriptions[externalKey{s.OrganizationID, s.ExternalID}] = *s
	return nil
}

func (r memorySubscriptionRepo) ListLive(_ context.Context, organizationID uuid.UUID) ([]*subscription.Subscription, error) {
	var live []*subscription.Subscription
	for _, s := range r.ledger.subscriptions {
		if s.OrganizationID == organizationID && s.IsLive() {
			live = append(live, &s)
		}
	}
	return live, nil
}

func (r memorySubscriptionRepo) WithTx(pgx.Tx) subscription.Repository { return r }

type memoryMovementRepo struct {
	*MockMovementRepo
	ledger *memoryLedger
}

func (r memoryMovementRepo) Create(_ context.Context, m *movement.Movement) error {
	r.ledger.movements = append(r.ledger.movements, *m)
	return nil
}

func (r memoryMovementRepo) WithTx(pgx.Tx) movement.Repository { return r }

type memoryCustomerRepo struct {
	*MockCustomerRepo
	ledger *memoryLedger
}

func (r memoryCustomerRepo) Ensure(_ context.Context, c *customer.Customer) (*customer.Customer, error) {
	key := externalKey{c.OrganizationID, c.ExternalID}
	if stored, ok := r.ledger.customers[key]; ok {
		return &stored, nil
	}
	r.ledger.customers[key] = *c
	return c, nil
}

func (r memoryCustomerRepo) WithTx(pgx.Tx) customer.Repository { return r }

type memoryOutboxRepo struct {
	*MockOutboxRepo
	ledger *memoryLedger
}

func (r memoryOutboxRepo) Create(_ context.Context, message *outbox.Message) error {
	r.ledger.outbox = append(r.ledger.outbox, *message)
	return nil
}

func (r memoryOutboxRepo) WithTx(pgx.Tx) outbox.Repository { return r }

type utcLocations struct{}

func (utcLocations) Location(context.Context, uuid.UUID) (*time.Location, error) {
	return time.UTC, nil
}

type discardReports struct{}

func (discardReports) RecordSyncReport(context.Context, *report.SyncReport) error { return nil }

func newMemoryProcessingService(ledger *memoryLedger) *service.ProcessingServiceImpl {
	logger := newTestLogger()
	subs := memorySubscriptionRepo{ledger: ledger}
	movements := memoryMovementRepo{MockMovementRepo: &MockMovementRepo{}, ledger: ledger}

	return service.NewProcessingService(
		ledger,
		normalizer.NewNormalizer(),
		NewReconciler(subs, logger),
		NewMovementClassifier(logger),
		NewLedgerWriter(subs, movements, logger),
		NewOutboxManager(memoryOutboxRepo{MockOutboxRepo: &MockOutboxRepo{}, ledger: ledger}, logger),
		NewCustomerManager(memoryCustomerRepo{MockCustomerRepo: &MockCustomerRepo{}, ledger: ledger}, logger),
		NewDealManager(&MockDealRepo{}, logger),
		utcLocations{},
		discardReports{},
		service.SequentialExecutor{},
		logger,
	)
}

func ledgerRecord(externalID, customerID, status string, amount int64) normalizer.Record {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return normalizer.Record{
		Kind: shared.RecordKindSubscription,
		Subscription: &normalizer.SubscriptionRecord{
			ExternalID:         externalID,
			CustomerExternalID: customerID,
			Status:             status,
			Currency:           "usd",
			UnitAmount:         &amount,
			Interval:           "month",
			IntervalCount:      1,
			CurrentPeriodStart: &start,
			CurrentPeriodEnd:   &end,
		},
	}
}

func ledgerPage(organizationID uuid.UUID, records ...normalizer.Record) *normalizer.SyncPage {
	return &normalizer.SyncPage{
		SyncRunID:      uuid.New(),
		OrganizationID: organizationID,
		Provider:       "stripe",
		Records:        records,
	}
}

func liveTotal(t *testing.T, ledger *memoryLedger, organizationID uuid.UUID) int64 {
	t.Helper()
	live, err := memorySubscriptionRepo{ledger: ledger}.ListLive(context.Background(), organizationID)
	require.NoError(t, err)
	total, _, err := normalizer.LiveTotals(live)
	require.NoError(t, err)
	return total
}

func TestLedger_MovementsSumToLiveMrr(t *testing.T) {
	ctx := context.Background()
	ledger := newMemoryLedger()
	svc := newMemoryProcessingService(ledger)
	orgID := uuid.New()

	signup := ledgerPage(orgID, ledgerRecord("sub_1", "cus_1", "active", 10000))
	upgrade := ledgerPage(orgID,
		ledgerRecord("sub_1", "cus_1", "active", 20000),
		ledgerRecord("sub_2", "cus_2", "active", 5000),
	)
	cancel := ledgerPage(orgID, ledgerRecord("sub_1", "cus_1", "canceled", 20000))
	winBack := ledgerPage(orgID, ledgerRecord("sub_1", "cus_1", "active", 15000))

	deliveries := []struct {
		page      *normalizer.SyncPage
		movements int
		skipped   int
	}{
		{page: signup, movements: 1},
		{page: signup, skipped: 1},
		{page: upgrade, movements: 2},
		{page: cancel, movements: 1},
		{page: upgrade, skipped: 2},
		{page: winBack, movements: 1},
		{page: winBack, skipped: 1},
		{page: signup, skipped: 1},
	}

	for i, d := range deliveries {
		rep, err := svc.ProcessPage(ctx, d.page)
		require.NoError(t, err, "delivery %d", i)
		assert.Empty(t, rep.Failures, "delivery %d", i)
		assert.Equal(t, d.movements, rep.Movements, "delivery %d", i)
		assert.Equal(t, d.skipped, rep.Skipped, "delivery %d", i)
		assert.Equal(t, liveTotal(t, ledger, orgID), ledger.deltaSum(), "delivery %d", i)
	}

	assert.Equal(t, []movement.Type{
		movement.TypeNew,
		movement.TypeExpansion,
		movement.TypeNew,
		movement.TypeChurn,
		movement.TypeReactivation,
	}, ledger.movementTypes())
	assert.Equal(t, int64(20000), ledger.deltaSum())
	assert.Len(t, ledger.outbox, len(ledger.movements))
	assert.Len(t, ledger.customers, 2)
}

func TestLedger_RedeliveredPageIsAppliedOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newMemoryLedger()
	svc := newMemoryProcessingService(ledger)
	orgID := uuid.New()
	page := ledgerPage(orgID,
		ledgerRecord("sub_1", "cus_1", "active", 10000),
		ledgerRecord("sub_1", "cus_1", "active", 20000),
	)

	first, err := svc.ProcessPage(ctx, page)
	require.NoError(t, err)
	second, err := svc.ProcessPage(ctx, page)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Movements)
	assert.Zero(t, second.Movements)
	assert.Equal(t, 2, second.Skipped)
	require.Len(t, ledger.movements, 2)
	assert.Equal(t, []movement.Type{movement.TypeNew, movement.TypeExpansion}, ledger.movementTypes())
	assert.Equal(t, int64(20000), ledger.deltaSum())
	assert.Equal(t, liveTotal(t, ledger, orgID), ledger.deltaSum())
}

func TestLedger_StaleProviderStateIsSkipped(t *testing.T) {
	ctx := context.Background()
	ledger := newMemoryLedger()
	svc := newMemoryProcessingService(ledger)
	orgID := uuid.New()
	morning := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	evening := morning.Add(9 * time.Hour)

	latest := ledgerRecord("sub_1", "cus_1", "active", 20000)
	latest.Subscription.UpdatedAt = &evening
	older := ledgerRecord("sub_1", "cus_1", "active", 10000)
	older.Subscription.UpdatedAt = &morning

	_, err := svc.ProcessPage(ctx, ledgerPage(orgID, latest))
	require.NoError(t, err)
	rep, err := svc.ProcessPage(ctx, ledgerPage(orgID, older))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []movement.Type{movement.TypeNew}, ledger.movementTypes())
	assert.Equal(t, int64(20000), liveTotal(t, ledger, orgID))
	assert.Equal(t, liveTotal(t, ledger, orgID), ledger.deltaSum())
}
