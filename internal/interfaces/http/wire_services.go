package http

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/application/billing/pricing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/adapters"
	"github.com/leadsyncpro/billing/internal/infrastructure/config"
	"github.com/leadsyncpro/billing/internal/infrastructure/gateway/iyzico"
	"github.com/leadsyncpro/billing/internal/infrastructure/metrics"
	shareddb "github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// ============================================================
// Section 1: Infrastructure - Redis, metrics, repositories
// ============================================================

func (c *Container) initInfrastructure() error {
	if c.redis == nil {
		client, err := InitRedis(c.cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.registry = prometheus.NewRegistry()
	c.metrics = metrics.NewBillingMetrics(c.registry)
	c.repos = newRepositories(c.db)
	c.txMgr = shareddb.NewTransactionManager(c.db)
	return nil
}

// InitRedis connects to Redis and verifies the connection with a ping.
func InitRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())

	return client, nil
}

// ============================================================
// Section 2: Billing services
// ============================================================

func (c *Container) initServices() error {
	mode, err := invoicing.ParseRoundingMode(c.cfg.Billing.Rounding)
	if err != nil {
		return fmt.Errorf("invalid billing rounding: %w", err)
	}
	c.invoices = invoicing.NewEngine(pricing.NewEngine(), invoicing.WithRounding(invoicing.NewMoneyRounding(mode)))

	c.machine = billing.NewStateMachine(
		c.repos.seatRepo,
		billing.WithTransitionObserver(c.metrics),
	)

	if c.gateway == nil {
		c.gateway = iyzico.NewClient(c.cfg.Gateway, logger.WithComponent("gateway.iyzico"))
	}
	if c.notifier == nil {
		c.notifier = adapters.NewLoggingNotifier(logger.WithComponent("billing.notifications"))
	}
	return nil
}
