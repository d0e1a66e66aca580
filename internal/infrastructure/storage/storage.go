// Package storage keeps rendered invoice documents in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	infraconfig "github.com/erp/invoicing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a stored document does not exist
var ErrObjectNotFound = errors.New("object not found")

// DocumentStore persists documents under a key and returns a durable locator
type DocumentStore interface {
	// Put stores data under key, replacing any previous object, and returns
	// the locator recorded on the invoice.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get reads back a document by key
	Get(ctx context.Context, key string) ([]byte, error)
}

// NewDocumentStore builds the store selected by cfg.Driver
func NewDocumentStore(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch cfg.Driver {
	case "", "local":
		return NewLocalDocumentStore(cfg.LocalPath)
	case "s3":
		store, err := NewS3DocumentStore(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
