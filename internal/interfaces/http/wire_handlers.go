package http

import (
	"time"

	billingHandlers "github.com/leadsyncpro/billing/internal/interfaces/http/handlers/billing"
	"github.com/leadsyncpro/billing/internal/interfaces/http/middleware"
)

// allHandlers holds handlers and the middleware instances they depend on.
type allHandlers struct {
	billing        *billingHandlers.Handler
	webhook        *billingHandlers.WebhookHandler
	idempotency    *middleware.IdempotencyGuard
	webhookLimiter *middleware.RateLimiter
}

// ============================================================
// Section 4: Handlers and middleware
// ============================================================

func (c *Container) initHandlers() {
	u := c.ucs

	c.hdlrs = &allHandlers{
		billing: billingHandlers.NewHandler(
			u.createSubscription,
			u.changePlan,
			u.updateSeats,
			u.cancelSubscription,
			u.getSubscription,
			u.listSubscriptions,
			u.listInvoices,
			u.getInvoice,
			u.previewInvoice,
			u.listPlans,
			u.createPlan,
			c.log,
		),
		webhook:     billingHandlers.NewWebhookHandler(u.ingestWebhook, c.log),
		idempotency: middleware.NewIdempotencyGuard(c.repos.idempotencyRepo, c.cfg.Idempotency.TTL, c.log),
	}

	if limit := c.cfg.Server.WebhookRateLimit; limit > 0 {
		c.hdlrs.webhookLimiter = middleware.NewRateLimiter(c.redis, "webhook", limit, time.Minute, c.log)
	}
}
