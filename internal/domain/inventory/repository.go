package inventory

import (
	"context"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product persistence.
// Save never writes StockQuantity; only the MovementStore changes it.
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindLowStock finds active products at or below their minimum,
	// ordered by stock minus minimum ascending
	FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]Product, error)

	// Save creates or updates a product's catalog fields
	Save(ctx context.Context, product *Product) error
}

// MovementRepository reads the append-only ledger.
type MovementRepository interface {
	// FindByProduct lists a product's movements newest first
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)

	// FindByInvoice lists the movements recorded for an invoice
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]StockMovement, error)

	// SumByProduct returns the signed sum of a product's movements
	SumByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
}
