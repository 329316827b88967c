// Package routes provides HTTP route configurations.
package routes

import (
	"github.com/gin-gonic/gin"

	billingHandlers "github.com/leadsyncpro/billing/internal/interfaces/http/handlers/billing"
	"github.com/leadsyncpro/billing/internal/interfaces/http/middleware"
)

// BillingRouteConfig contains dependencies for billing routes.
type BillingRouteConfig struct {
	Handler        *billingHandlers.Handler
	WebhookHandler *billingHandlers.WebhookHandler
	Idempotency    *middleware.IdempotencyGuard
	// WebhookLimiter is optional.
	WebhookLimiter *middleware.RateLimiter
}

// SetupBillingRoutes configures the billing API under /api/billing and the
// gateway webhook endpoint.
// Mutating subscription routes require an Idempotency-Key header.
func SetupBillingRoutes(engine *gin.Engine, cfg *BillingRouteConfig) {
	api := engine.Group("/api/billing")
	{
		idempotent := cfg.Idempotency.Require()

		subscriptions := api.Group("/subscriptions")
		subscriptions.POST("", idempotent, cfg.Handler.CreateSubscription)
		subscriptions.GET("/:id", cfg.Handler.GetSubscription)
		subscriptions.POST("/:id/plan", idempotent, cfg.Handler.ChangePlan)
		subscriptions.POST("/:id/seats", idempotent, cfg.Handler.UpdateSeats)
		subscriptions.POST("/:id/cancel", idempotent, cfg.Handler.CancelSubscription)

		customers := api.Group("/customers/:customerId")
		customers.GET("/subscriptions", cfg.Handler.ListCustomerSubscriptions)
		customers.GET("/invoices", cfg.Handler.ListCustomerInvoices)

		invoices := api.Group("/invoices")
		invoices.GET("/:id", cfg.Handler.GetInvoice)
		invoices.POST("/preview", cfg.Handler.PreviewInvoice)

		api.GET("/public/plans", cfg.Handler.ListPublicPlans)
		api.POST("/plans", cfg.Handler.CreatePlan)
	}

	webhooks := engine.Group("/webhooks")
	if cfg.WebhookLimiter != nil {
		webhooks.Use(cfg.WebhookLimiter.Limit())
	}
	webhooks.POST("/iyzico", cfg.WebhookHandler.HandleIyzico)
}
