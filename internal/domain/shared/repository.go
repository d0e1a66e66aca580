package shared

import (
	"context"
	"time"
)

// DefaultPageSize applies when a listing does not ask for one
const DefaultPageSize = 20

// Filter holds the paging, ordering and free-text search shared by list
// queries. Page numbers start at 1.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: "desc"}
}

// Offset is the number of rows skipped before the filter's page
func (f Filter) Offset() int {
	if f.Page < 2 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// IdempotencyStore remembers keys that were already acted on, for a while.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key is
	// already claimed and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget releases key so the action may be attempted again.
	Forget(ctx context.Context, key string) error
	Close() error
}
