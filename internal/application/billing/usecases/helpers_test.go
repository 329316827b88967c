package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/application/billing/pricing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/migration"
	"github.com/leadsyncpro/billing/internal/infrastructure/repository"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSubscription(ctx context.Context, req gateway.CreateSubscriptionRequest) (*gateway.SubscriptionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*gateway.SubscriptionResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) ChangePlan(ctx context.Context, externalSubscriptionID, priceID string, behavior gateway.ProrationBehavior) error {
	return m.Called(ctx, externalSubscriptionID, priceID, behavior).Error(0)
}

func (m *mockGateway) UpdateSeats(ctx context.Context, externalSubscriptionID string, seatCount int, behavior gateway.ProrationBehavior) error {
	return m.Called(ctx, externalSubscriptionID, seatCount, behavior).Error(0)
}

func (m *mockGateway) CancelSubscription(ctx context.Context, externalSubscriptionID string, cancelAtPeriodEnd bool) error {
	return m.Called(ctx, externalSubscriptionID, cancelAtPeriodEnd).Error(0)
}

func (m *mockGateway) CreateInvoice(ctx context.Context, req gateway.CreateInvoiceRequest) (*gateway.InvoiceResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*gateway.InvoiceResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) VerifyWebhookSignature(signature string, payload []byte) bool {
	return m.Called(signature, payload).Bool(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPaymentRetrySuccess(ctx context.Context, subscriptionID string, attempt int) error {
	return m.Called(ctx, subscriptionID, attempt).Error(0)
}

func (m *mockNotifier) NotifyPaymentRetryFailure(ctx context.Context, subscriptionID string, attempt int) error {
	return m.Called(ctx, subscriptionID, attempt).Error(0)
}

func (m *mockNotifier) NotifySubscriptionCanceled(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

// recordingMetrics captures reported outcomes.
type recordingMetrics struct {
	dunning  []string
	webhooks []string
}

func (r *recordingMetrics) RecordDunningAttempt(result string) {
	r.dunning = append(r.dunning, result)
}

func (r *recordingMetrics) RecordWebhookEvent(eventType, result string) {
	r.webhooks = append(r.webhooks, eventType+":"+result)
}

type fixture struct {
	db            *gorm.DB
	subscriptions *repository.SubscriptionRepository
	plans         *repository.PlanRepository
	invoices      *repository.InvoiceRepository
	events        *repository.WebhookEventRepository
	machine       *billing.StateMachine
	engine        *invoicing.Engine
	txMgr         *db.TransactionManager
	gateway       *mockGateway
	notifier      *mockNotifier
	log           logger.Interface
	plan          *billing.Plan
	price         *billing.Price
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(migration.AutoMigrateModels()...))

	f := &fixture{
		db:            gdb,
		subscriptions: repository.NewSubscriptionRepository(gdb),
		plans:         repository.NewPlanRepository(gdb),
		invoices:      repository.NewInvoiceRepository(gdb),
		events:        repository.NewWebhookEventRepository(gdb),
		engine:        invoicing.NewEngine(pricing.NewEngine()),
		txMgr:         db.NewTransactionManager(gdb),
		gateway:       &mockGateway{},
		notifier:      &mockNotifier{},
		log:           logger.NewNopLogger(),
	}
	f.machine = billing.NewStateMachine(
		repository.NewSeatAllocationRepository(gdb),
		billing.WithClock(func() time.Time { return t0 }),
	)
	f.plan, f.price = f.seedPlan(t, "pro", vo.BillingPeriodMonth, 1000, 500, true)
	return f
}

func (f *fixture) seedPlan(t *testing.T, code string, period vo.BillingPeriod, base, perSeat int64, active bool) (*billing.Plan, *billing.Price) {
	t.Helper()
	ctx := context.Background()
	plan := &billing.Plan{ID: "plan-" + code, Code: code, Name: code, Active: active, CreatedAt: t0}
	price := &billing.Price{
		ID:                 "price-" + code + "-" + string(period),
		PlanID:             plan.ID,
		BillingPeriod:      period,
		BaseAmountCents:    billing.Cents(base),
		PerSeatAmountCents: billing.Cents(perSeat),
		Currency:           "TRY",
	}
	require.NoError(t, f.plans.Create(ctx, plan))
	require.NoError(t, f.plans.CreatePrice(ctx, price))
	return plan, price
}

// seedSubscription stores a subscription with three seats created at t0.
func (f *fixture) seedSubscription(t *testing.T, externalID string, status vo.SubscriptionStatus) *billing.Subscription {
	t.Helper()
	trialDays := 0
	if status == vo.StatusTrial {
		trialDays = 14
	}
	sub, err := f.machine.Create("cust-1", f.plan, f.price, 3, t0, trialDays)
	require.NoError(t, err)
	require.NoError(t, f.machine.ApplyGatewayState(sub, externalID, nil, nil, false))

	switch status {
	case vo.StatusPastDue:
		require.NoError(t, f.machine.MarkPastDue(sub))
	case vo.StatusCanceled:
		require.NoError(t, f.machine.MarkPastDue(sub))
		require.NoError(t, f.machine.Cancel(sub, t0))
	}
	require.NoError(t, f.subscriptions.Create(context.Background(), sub))
	return sub
}

func (f *fixture) reload(t *testing.T, id string) *billing.Subscription {
	t.Helper()
	sub, err := f.subscriptions.GetByID(context.Background(), id)
	require.NoError(t, err)
	return sub
}

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func daysAfter(days int) time.Time {
	return t0.Add(time.Duration(days)*24*time.Hour + time.Hour)
}
