package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/crm/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests
	Enabled bool
	// SkipPaths are paths that don't need profiling labels
	SkipPaths []string
}

// DefaultProfilingConfig returns the default profiling configuration
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics"},
	}
}

// Profiling tags request execution with Pyroscope labels so profiles can be
// filtered by method, route and tenant.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig returns profiling middleware with custom configuration
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		labels := make(map[string]string, 3)
		labels[telemetry.ProfilingLabelMethod] = c.Request.Method
		if route := c.FullPath(); route != "" {
			labels[telemetry.ProfilingLabelRoute] = route
		}
		if tenantID := GetAuthTenantID(c); tenantID != "" {
			labels[telemetry.ProfilingLabelTenantID] = tenantID
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
