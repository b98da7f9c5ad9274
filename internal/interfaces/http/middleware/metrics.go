package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crm/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count, latency and in-flight gauge on the
// Prometheus registry. Labels use the route template, not the raw URL, to
// keep cardinality bounded.
func HTTPMetrics(metrics *telemetry.Metrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		metrics.RequestStarted()

		c.Next()

		path := c.FullPath()
		if path == "" {
			// Unmatched routes collapse into one label value.
			path = "unmatched"
		}
		metrics.RequestFinished(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
