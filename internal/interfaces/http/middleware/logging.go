package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadsyncpro/billing/internal/shared/constants"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// RequestLogger logs one line per request, at a level chosen by status class.
func RequestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}

		if requestID := c.GetHeader(constants.HeaderXRequestID); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if key := c.GetHeader(constants.HeaderIdempotencyKey); key != "" {
			args = append(args, "idempotency_key", key)
		}
		if c.Writer.Header().Get(constants.HeaderIdempotentReplay) != "" {
			args = append(args, "replayed", true)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		default:
			log.Debugw("HTTP request completed successfully", args...)
		}
	}
}
