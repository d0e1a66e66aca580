package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans
type DBTracingConfig struct {
	DBName          string
	LogFullSQL      bool // include bound variables; development only
	SlowQueryThresh time.Duration
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus callbacks that flag query
// spans slower than cfg.SlowQueryThresh.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	start := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	finish := func(tx *gorm.DB) { flagSlowQuery(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:start_create", start),
		cb.Query().Before("gorm:query").Register("telemetry:start_query", start),
		cb.Update().Before("gorm:update").Register("telemetry:start_update", start),
		cb.Delete().Before("gorm:delete").Register("telemetry:start_delete", start),
		cb.Row().Before("gorm:row").Register("telemetry:start_row", start),
		cb.Raw().Before("gorm:raw").Register("telemetry:start_raw", start),
		cb.Create().Before("otel:after:create").Register("telemetry:finish_create", finish),
		cb.Query().Before("otel:after:select").Register("telemetry:finish_query", finish),
		cb.Update().Before("otel:after:update").Register("telemetry:finish_update", finish),
		cb.Delete().Before("otel:after:delete").Register("telemetry:finish_delete", finish),
		cb.Row().Before("otel:after:row").Register("telemetry:finish_row", finish),
		cb.Raw().Before("otel:after:raw").Register("telemetry:finish_raw", finish),
	)
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// flagSlowQuery runs before otelgorm ends the query span.
func flagSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	started, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(started)
	if elapsed <= threshold {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Bool("db.slow_query", true))
	span.AddEvent("slow_query", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", threshold.Milliseconds()),
	))
}
