package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports the readiness of the service and its dependencies
type HealthHandler struct {
	service string
	timeout time.Duration
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a HealthHandler for the named service
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{
		service: service,
		timeout: 2 * time.Second,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck registers a dependency check
func (h *HealthHandler) AddCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// Health handles GET /health. It answers 503 when any check fails.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": h.service,
		"checks":  results,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
