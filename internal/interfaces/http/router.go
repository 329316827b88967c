package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/leadsyncpro/billing/internal/interfaces/http/middleware"
	"github.com/leadsyncpro/billing/internal/interfaces/http/routes"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

// SetupRoutes installs the middleware chain and every route.
func (c *Container) SetupRoutes() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.RegisterJSONTagNames(v)
	}

	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.RequestLogger(c.log))
	c.engine.Use(middleware.Metrics(c.metrics))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))

	c.engine.GET("/health", c.health)
	c.engine.GET("/metrics", gin.WrapH(c.metrics.Handler()))

	routes.SetupBillingRoutes(c.engine, &routes.BillingRouteConfig{
		Handler:        c.hdlrs.billing,
		WebhookHandler: c.hdlrs.webhook,
		Idempotency:    c.hdlrs.idempotency,
		WebhookLimiter: c.hdlrs.webhookLimiter,
	})
}

// health reports whether the database and Redis answer.
func (c *Container) health(ctx *gin.Context) {
	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "ok"}

	if sqlDB, err := c.db.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = "unavailable"
	}
	if err := c.redis.Ping(ctx.Request.Context()).Err(); err != nil {
		status = http.StatusServiceUnavailable
		checks["redis"] = "unavailable"
	}

	checks["status"] = "ok"
	if status != http.StatusOK {
		checks["status"] = "degraded"
	}
	ctx.JSON(status, checks)
}
