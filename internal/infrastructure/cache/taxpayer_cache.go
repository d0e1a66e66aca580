package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTaxpayerTTL is how long a registry answer is reused
const DefaultTaxpayerTTL = 24 * time.Hour

// TaxpayerCache stores fiscal code lookups
type TaxpayerCache interface {
	// Get returns the cached record; found is false on a miss.
	Get(ctx context.Context, cif string) (info *einvoice.TaxpayerInfo, found bool, err error)
	Set(ctx context.Context, cif string, info *einvoice.TaxpayerInfo, ttl time.Duration) error
}

// RedisTaxpayerCache keeps lookups as JSON strings in Redis
type RedisTaxpayerCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTaxpayerCache creates a cache over a shared client
func NewRedisTaxpayerCache(client *redis.Client) *RedisTaxpayerCache {
	return &RedisTaxpayerCache{client: client, keyPrefix: "invoicing:cif:"}
}

// Get reads a cached record
func (c *RedisTaxpayerCache) Get(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+cif).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached taxpayer: %w", err)
	}
	var info einvoice.TaxpayerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached taxpayer: %w", err)
	}
	return &info, true, nil
}

// Set writes a record with a TTL
func (c *RedisTaxpayerCache) Set(ctx context.Context, cif string, info *einvoice.TaxpayerInfo, ttl time.Duration) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode taxpayer: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+cif, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache taxpayer: %w", err)
	}
	return nil
}

type cacheEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryTaxpayerCache is the process-local cache used without Redis
type InMemoryTaxpayerCache struct {
	entries sync.Map // map[string]*cacheEntry[einvoice.TaxpayerInfo]
	hits    int64
	misses  int64
}

// NewInMemoryTaxpayerCache creates an empty cache
func NewInMemoryTaxpayerCache() *InMemoryTaxpayerCache {
	return &InMemoryTaxpayerCache{}
}

// Get returns a live entry; expired entries are dropped
func (c *InMemoryTaxpayerCache) Get(_ context.Context, cif string) (*einvoice.TaxpayerInfo, bool, error) {
	v, ok := c.entries.Load(cif)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	e := v.(*cacheEntry[einvoice.TaxpayerInfo])
	if e.isExpired() {
		c.entries.Delete(cif)
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.hits, 1)
	info := *e.value
	return &info, true, nil
}

// Set stores a copy of info
func (c *InMemoryTaxpayerCache) Set(_ context.Context, cif string, info *einvoice.TaxpayerInfo, ttl time.Duration) error {
	stored := *info
	c.entries.Store(cif, &cacheEntry[einvoice.TaxpayerInfo]{value: &stored, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryTaxpayerCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// CachedTaxpayerLookup puts a cache in front of the registry client.
// Unknown codes are not cached. Cache failures are logged and bypassed.
type CachedTaxpayerLookup struct {
	next   einvoice.TaxpayerLookup
	cache  TaxpayerCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTaxpayerLookup wraps next; ttl <= 0 means DefaultTaxpayerTTL
func NewCachedTaxpayerLookup(next einvoice.TaxpayerLookup, cache TaxpayerCache, ttl time.Duration, logger *zap.Logger) *CachedTaxpayerLookup {
	if ttl <= 0 {
		ttl = DefaultTaxpayerTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTaxpayerLookup{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Lookup serves from cache or asks the registry
func (l *CachedTaxpayerLookup) Lookup(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	cif = billing.NormalizeCIF(cif)
	if cif == "" {
		return nil, nil
	}

	info, found, err := l.cache.Get(ctx, cif)
	if err != nil {
		l.logger.Warn("taxpayer cache read failed", zap.String("cif", cif), zap.Error(err))
	} else if found {
		return info, nil
	}

	info, err = l.next.Lookup(ctx, cif)
	if err != nil || info == nil {
		return info, err
	}
	if err := l.cache.Set(ctx, cif, info, l.ttl); err != nil {
		l.logger.Warn("taxpayer cache write failed", zap.String("cif", cif), zap.Error(err))
	}
	return info, nil
}

var (
	_ TaxpayerCache           = (*RedisTaxpayerCache)(nil)
	_ TaxpayerCache           = (*InMemoryTaxpayerCache)(nil)
	_ einvoice.TaxpayerLookup = (*CachedTaxpayerLookup)(nil)
)
