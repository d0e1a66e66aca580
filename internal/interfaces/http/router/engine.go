package router

import (
	"fmt"

	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// EngineConfig configures the HTTP engine
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	MaxBodySize    int64
	TrustedProxies []string
	Tracing        []otelgin.Option
	Tenants        middleware.TenantValidator
	Health         *handler.HealthHandler
}

// NewEngine builds the gin engine: request logging, panic recovery, tracing
// and body limits for every route, tenant resolution and profiling labels
// for the API.
func NewEngine(cfg EngineConfig, handlers Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Tracing(cfg.ServiceName, cfg.Tracing...),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health.Health)
	}

	mount(engine, []gin.HandlerFunc{
		middleware.Tenant(middleware.TenantConfig{Validator: cfg.Tenants, Logger: cfg.Logger}),
		middleware.SpanAttributes(),
		middleware.Profiling(),
	}, handlers.Groups()...)

	return engine, nil
}
