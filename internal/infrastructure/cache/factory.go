package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errRedisDisabled = errors.New("redis is disabled")

// Factory builds the caches from configuration, sharing one Redis client
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	once      sync.Once
	client    *redis.Client
	clientErr error
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether to fall back to in-process caches
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) redisClient(ctx context.Context) (*redis.Client, error) {
	if !f.redisConfig.Enabled {
		return nil, errRedisDisabled
	}
	f.once.Do(func() {
		f.client, f.clientErr = Connect(ctx, RedisOptions(f.redisConfig))
	})
	return f.client, f.clientErr
}

func (f *Factory) fallback(what string, err error) error {
	if errors.Is(err, errRedisDisabled) {
		return nil
	}
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required for %s but unavailable: %w", what, err)
	}
	// In-process state is not shared between instances.
	f.logger.Warn("Redis unavailable, falling back to in-memory "+what, zap.Error(err))
	return nil
}

// CreateIdempotencyStore returns a Redis store, or an in-memory one when
// Redis is disabled or (with fallback allowed) unreachable
func (f *Factory) CreateIdempotencyStore(ctx context.Context) (shared.IdempotencyStore, error) {
	client, err := f.redisClient(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStoreWithClient(client, ""), nil
	}
	if err := f.fallback("idempotency store", err); err != nil {
		return nil, err
	}
	return NewInMemoryIdempotencyStore(), nil
}

// CreateTaxpayerCache returns the fiscal code cache
func (f *Factory) CreateTaxpayerCache(ctx context.Context) (TaxpayerCache, error) {
	client, err := f.redisClient(ctx)
	if err == nil {
		return NewRedisTaxpayerCache(client), nil
	}
	if err := f.fallback("taxpayer cache", err); err != nil {
		return nil, err
	}
	return NewInMemoryTaxpayerCache(), nil
}

// Ping checks the shared Redis client. It reports nil when Redis is disabled.
func (f *Factory) Ping(ctx context.Context) error {
	if !f.redisConfig.Enabled {
		return nil
	}
	client, err := f.redisClient(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Close closes the shared Redis client
func (f *Factory) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
