package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/migration"
	"github.com/leadsyncpro/billing/internal/shared/db"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

var testStart = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(migration.AutoMigrateModels()...)
	require.NoError(t, err)
	return gdb
}

func seedCatalog(t *testing.T, repo *PlanRepository) (*billing.Plan, *billing.Price) {
	t.Helper()
	ctx := context.Background()

	plan := &billing.Plan{ID: "plan-pro", Code: "pro", Name: "Pro", Active: true, CreatedAt: testStart}
	price := &billing.Price{
		ID:                 "price-pro-month",
		PlanID:             plan.ID,
		BillingPeriod:      vo.BillingPeriodMonth,
		BaseAmountCents:    billing.Cents(1000),
		PerSeatAmountCents: billing.Cents(500),
		Currency:           "TRY",
	}
	require.NoError(t, repo.Create(ctx, plan))
	require.NoError(t, repo.CreatePrice(ctx, price))
	return plan, price
}

func newSubscription(t *testing.T, plan *billing.Plan, price *billing.Price, customerID, externalID string, trialDays int) (*billing.StateMachine, *billing.Subscription) {
	t.Helper()
	m := billing.NewStateMachine(nil, billing.WithClock(func() time.Time { return testStart }))
	sub, err := m.Create(customerID, plan, price, 3, testStart, trialDays)
	require.NoError(t, err)
	require.NoError(t, m.ApplyGatewayState(sub, externalID, nil, nil, false))
	return m, sub
}

func TestPlanRepository(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t))
	ctx := context.Background()
	plan, price := seedCatalog(t, repo)

	got, err := repo.GetByCode(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
	assert.True(t, got.Active)

	gotPrice, err := repo.GetPrice(ctx, plan.ID, vo.BillingPeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, price.ID, gotPrice.ID)
	assert.Equal(t, int64(500), *gotPrice.PerSeatAmountCents)
	assert.Nil(t, gotPrice.SeatLimit)

	_, err = repo.GetPrice(ctx, plan.ID, vo.BillingPeriodYear)
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = repo.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, billing.ErrPlanNotFound)
}

func TestPlanRepository_ListCatalog(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t))
	ctx := context.Background()
	pro, _ := seedCatalog(t, repo)

	require.NoError(t, repo.Create(ctx, &billing.Plan{ID: "plan-agency", Code: "agency", Name: "agency", Active: true, CreatedAt: testStart}))
	require.NoError(t, repo.Create(ctx, &billing.Plan{ID: "plan-legacy", Code: "legacy", Name: "Legacy", Active: false, CreatedAt: testStart}))
	require.NoError(t, repo.CreatePrice(ctx, &billing.Price{
		ID:                 "price-pro-year",
		PlanID:             pro.ID,
		BillingPeriod:      vo.BillingPeriodYear,
		PerSeatAmountCents: billing.Cents(5000),
		Currency:           "TRY",
	}))

	plans, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "agency", plans[0].Code)
	assert.Equal(t, "pro", plans[1].Code)

	prices, err := repo.ListPrices(ctx, pro.ID)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, vo.BillingPeriodMonth, prices[0].BillingPeriod)
	assert.Equal(t, vo.BillingPeriodYear, prices[1].BillingPeriod)

	none, err := repo.ListPrices(ctx, "plan-agency")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubscriptionRepository_CreateAndLoad(t *testing.T) {
	gdb := setupTestDB(t)
	plan, price := seedCatalog(t, NewPlanRepository(gdb))
	repo := NewSubscriptionRepository(gdb)
	ctx := context.Background()

	_, sub := newSubscription(t, plan, price, "cust-1", "ext-1", 0)
	require.NoError(t, repo.Create(ctx, sub))
	assert.Empty(t, sub.PendingSeatAllocations())

	got, err := repo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, got.Status())
	assert.Equal(t, "ext-1", got.ExternalSubscriptionID())
	assert.Equal(t, price.ID, got.Price().ID)
	require.Len(t, got.SeatAllocations(), 1)
	assert.Equal(t, 3, got.SeatAllocations()[0].SeatCount())

	byExternal, err := repo.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, sub.ID(), byExternal.ID())

	_, err = repo.GetByExternalID(ctx, "ext-missing")
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
}

func TestSubscriptionRepository_UpdateAppendsAllocations(t *testing.T) {
	gdb := setupTestDB(t)
	plan, price := seedCatalog(t, NewPlanRepository(gdb))
	repo := NewSubscriptionRepository(gdb)
	seats := NewSeatAllocationRepository(gdb)
	txMgr := db.NewTransactionManager(gdb)
	ctx := context.Background()

	m, sub := newSubscription(t, plan, price, "cust-1", "ext-1", 0)
	require.NoError(t, repo.Create(ctx, sub))

	err := txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := repo.GetByIDForUpdate(txCtx, sub.ID())
		if err != nil {
			return err
		}
		if err := m.UpdateSeats(locked, 7, testStart.Add(48*time.Hour), false); err != nil {
			return err
		}
		return repo.Update(txCtx, locked)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusPastDue, got.Status())
	assert.Len(t, got.SeatAllocations(), 2)
	assert.True(t, got.UpdatedAt().After(testStart))

	latest, err := seats.FindLatest(ctx, sub.ID())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 7, latest.SeatCount())

	history, err := seats.ListBySubscription(ctx, sub.ID())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].SeatCount())

	none, err := seats.FindLatest(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSubscriptionRepository_SweepQueries(t *testing.T) {
	gdb := setupTestDB(t)
	plan, price := seedCatalog(t, NewPlanRepository(gdb))
	repo := NewSubscriptionRepository(gdb)
	ctx := context.Background()

	_, active := newSubscription(t, plan, price, "cust-1", "ext-1", 0)
	_, trial := newSubscription(t, plan, price, "cust-1", "ext-2", 14)
	m, pastDue := newSubscription(t, plan, price, "cust-2", "ext-3", 0)
	require.NoError(t, m.MarkPastDue(pastDue))

	for _, sub := range []*billing.Subscription{active, trial, pastDue} {
		require.NoError(t, repo.Create(ctx, sub))
	}

	ids, err := repo.ListIDsByStatus(ctx, vo.StatusPastDue)
	require.NoError(t, err)
	assert.Equal(t, []string{pastDue.ID()}, ids)

	ids, err = repo.ListTrialIDsEndedBy(ctx, testStart.Add(13*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.ListTrialIDsEndedBy(ctx, testStart.Add(14*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{trial.ID()}, ids)

	subs, err := repo.ListByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestInvoiceRepository(t *testing.T) {
	gdb := setupTestDB(t)
	plan, price := seedCatalog(t, NewPlanRepository(gdb))
	subs := NewSubscriptionRepository(gdb)
	repo := NewInvoiceRepository(gdb)
	ctx := context.Background()

	_, sub := newSubscription(t, plan, price, "cust-1", "ext-1", 0)
	require.NoError(t, subs.Create(ctx, sub))

	ext := "inv-ext-1"
	older, err := billing.NewInvoice("inv-1", sub.ID(), &ext, testStart, testStart.AddDate(0, 1, 0), 2500, "TRY", vo.InvoiceStatusOpen, testStart)
	require.NoError(t, err)
	newer, err := billing.NewInvoice("inv-2", sub.ID(), nil, testStart.AddDate(0, 1, 0), testStart.AddDate(0, 2, 0), 2500, "TRY", vo.InvoiceStatusPaid, testStart)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.GetByExternalID(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID())

	got.MarkPaid(testStart.Add(time.Hour))
	require.NoError(t, repo.Update(ctx, got))
	reloaded, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, vo.InvoiceStatusPaid, reloaded.Status())

	list, err := repo.ListByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "inv-2", list[0].ID())
	assert.Equal(t, "inv-1", list[1].ID())

	_, err = repo.GetByExternalID(ctx, "nope")
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

func TestWebhookEventRepository(t *testing.T) {
	repo := NewWebhookEventRepository(setupTestDB(t))
	ctx := context.Background()

	none, err := repo.FindByProviderEventID(ctx, "iyzico", "evt-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	event, err := billing.NewWebhookEvent("w-1", "iyzico", "payment.failed", []byte(`{"eventId":"evt-1"}`), "sig", "evt-1", testStart)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, event))

	dup, err := billing.NewWebhookEvent("w-2", "iyzico", "payment.failed", []byte(`{"eventId":"evt-1"}`), "sig", "evt-1", testStart)
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateError(err))

	found, err := repo.FindByProviderEventID(ctx, "iyzico", "evt-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.JSONEq(t, `{"eventId":"evt-1"}`, string(found.Payload()))

	found.MarkProcessed(testStart)
	require.NoError(t, repo.Update(ctx, found))
	reloaded, err := repo.GetByID(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, reloaded.IsProcessed())
	assert.NotNil(t, reloaded.ProcessedAt())
}

func TestIdempotencyRepository(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.CreateOrGet(ctx, billing.NewIdempotencyEntry("e-1", "key-1", "hash-a", testStart, time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "e-1", first.ID())

	second, err := repo.CreateOrGet(ctx, billing.NewIdempotencyEntry("e-2", "key-1", "hash-b", testStart, time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "e-1", second.ID(), "the first writer wins")
	assert.Equal(t, "hash-a", second.RequestHash())

	active, err := repo.FindActive(ctx, "key-1", testStart)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, active.HasResponse())

	expires := testStart.Add(5 * time.Minute)
	require.NoError(t, repo.SaveResponse(ctx, "e-1", []byte(`{"ok":true}`), 201, expires))

	active, err = repo.FindActive(ctx, "key-1", testStart.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, active)
	require.True(t, active.HasResponse())
	assert.Equal(t, 201, *active.ResponseStatus())
	assert.Equal(t, `{"ok":true}`, string(active.ResponseBody()))

	expired, err := repo.FindActive(ctx, "key-1", expires)
	require.NoError(t, err)
	assert.Nil(t, expired)

	stale, err := repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, stale)

	require.NoError(t, repo.DeleteExpired(ctx, "key-1", expires.Add(-time.Second)))
	live, err := repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, live, "unexpired entries are kept")

	require.NoError(t, repo.DeleteExpired(ctx, "key-1", expires))
	gone, err := repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = repo.CreateOrGet(ctx, billing.NewIdempotencyEntry("e-3", "key-1", "hash-c", expires, time.Minute))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "e-3"))
	gone, err = repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
