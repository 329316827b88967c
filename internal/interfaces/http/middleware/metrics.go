package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics receives one observation per completed request.
type HTTPMetrics interface {
	ObserveHTTPRequest(method, path string, status int, elapsed time.Duration)
}

// Metrics records requests by route template so ids do not explode label
// cardinality. Unmatched routes are reported as "unmatched".
func Metrics(m HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
