package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grafana/pyroscope-go"
)

// Profiling labels the CPU samples of each request with its route, method
// and tenant so Pyroscope can slice profiles by endpoint. Unmatched routes
// are left unlabeled.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := []string{"route", route, "method", c.Request.Method}
		if tenantID := GetTenantID(c); tenantID != uuid.Nil {
			labels = append(labels, "tenant_id", tenantID.String())
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(labels...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
