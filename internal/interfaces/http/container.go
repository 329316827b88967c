package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/application/billing/notification"
	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/config"
	"github.com/leadsyncpro/billing/internal/infrastructure/metrics"
	shareddb "github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// Container holds infrastructure, repositories, use cases and handlers, and
// wires them together. The server and the dunning worker share it.
type Container struct {
	// Core infrastructure
	engine   *gin.Engine
	db       *gorm.DB
	cfg      *config.Config
	log      logger.Interface
	redis    *redis.Client
	registry *prometheus.Registry

	// Billing services
	metrics  *metrics.BillingMetrics
	machine  *billing.StateMachine
	invoices *invoicing.Engine
	gateway  gateway.Client
	notifier notification.Port
	txMgr    *shareddb.TransactionManager

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers
}

// Options overrides collaborators that talk to the outside world. Nil
// fields are built from configuration.
type Options struct {
	Redis    *redis.Client
	Gateway  gateway.Client
	Notifier notification.Port
}

// NewContainer wires the billing service. Redis is connected unless one is
// supplied through opts.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface, opts Options) (*Container, error) {
	c := &Container{
		engine:   gin.New(),
		db:       db,
		cfg:      cfg,
		log:      log,
		redis:    opts.Redis,
		gateway:  opts.Gateway,
		notifier: opts.Notifier,
	}

	// Section 1: Infrastructure - Redis, metrics, repositories
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Billing services - engine, state machine, gateway, notifier
	if err := c.initServices(); err != nil {
		return nil, err
	}

	// Section 3: Use cases
	c.initUseCases()

	// Section 4: Handlers and middleware
	c.initHandlers()

	return c, nil
}

// Engine returns the Gin engine; call SetupRoutes first.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Dunning returns the dunning sweep for the worker and the run-once command.
func (c *Container) Dunning() *usecases.DunningUseCase {
	return c.ucs.dunning
}

func (c *Container) Redis() *redis.Client {
	return c.redis
}

// Shutdown releases the Redis connection. The database is owned by the caller.
func (c *Container) Shutdown() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
