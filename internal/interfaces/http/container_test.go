package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/infrastructure/config"
	"github.com/leadsyncpro/billing/internal/infrastructure/migration"
	"github.com/leadsyncpro/billing/internal/interfaces/http/handlers/testutil"
	"github.com/leadsyncpro/billing/internal/shared/constants"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

func newTestContainer(t *testing.T) (*Container, *miniredis.Miniredis) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(migration.AutoMigrateModels()...))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Billing.Rounding = "HALF_UP"
	cfg.Gateway.BaseURL = "http://127.0.0.1:1"
	cfg.Gateway.WebhookSecret = "whsec"
	cfg.Gateway.Timeout = time.Second
	cfg.Idempotency.TTL = time.Minute
	cfg.Worker.Concurrency = 2
	cfg.Worker.LockTTL = time.Minute
	cfg.Worker.RetryScheduleDays = []int{1, 3, 7}
	cfg.Server.WebhookRateLimit = 100

	c, err := NewContainer(gdb, cfg, logger.NewNopLogger(), Options{Redis: client})
	require.NoError(t, err)
	t.Cleanup(c.Shutdown)

	c.SetupRoutes()
	return c, mr
}

func TestContainer_Health(t *testing.T) {
	c, mr := newTestContainer(t)

	w := testutil.PerformRequest(c.Engine(), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)

	mr.Close()
	w = testutil.PerformRequest(c.Engine(), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
}

func TestContainer_Routes(t *testing.T) {
	c, _ := newTestContainer(t)
	engine := c.Engine()

	t.Run("mutations require an idempotency key", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodPost, "/api/billing/subscriptions", map[string]any{
			"customerId":    "cust-1",
			"planCode":      "starter",
			"billingPeriod": "MONTH",
			"seatCount":     2,
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodGet, "/api/billing/subscriptions/missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("customer listings are empty", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodGet, "/api/billing/customers/cust-1/invoices", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodGet, "/api/billing/invoices/missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("created plans are listed", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodPost, "/api/billing/plans", map[string]any{
			"code": "team",
			"name": "Team",
			"prices": []map[string]any{
				{"billingPeriod": "MONTH", "perSeatAmountCents": 1500, "currency": "TRY"},
			},
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = testutil.PerformRequest(engine, http.MethodGet, "/api/billing/public/plans", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"team"`)
	})

	t.Run("webhook with bad signature", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodPost, "/webhooks/iyzico", []byte(`{"id":"evt-1"}`),
			map[string]string{constants.HeaderIyzicoSignature: "bogus"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		w := testutil.PerformRequest(engine, http.MethodGet, "/metrics", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "http_requests_total")
	})
}

func TestContainer_RejectsUnknownRounding(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Billing.Rounding = "CEILING"

	_, err = NewContainer(gdb, cfg, logger.NewNopLogger(), Options{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})})
	assert.Error(t, err)
}
