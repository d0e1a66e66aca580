package inventory

import (
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item whose stock is tracked by the ledger.
//
// StockQuantity is a cached aggregate of the product's movements. It is
// never assigned directly outside the persistence layer; every change goes
// through a StockMovement appended by the Ledger.
type Product struct {
	shared.TenantAggregateRoot
	Code          string
	Name          string
	Description   string
	Unit          string
	UnitPrice     decimal.Decimal
	VATRateID     *uuid.UUID
	StockQuantity decimal.Decimal
	StockMinimum  decimal.Decimal
	IsActive      bool
}

// NewProduct creates an active product with zero stock.
func NewProduct(tenantID uuid.UUID, code, name, unit string, unitPrice decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if strings.TrimSpace(unit) == "" {
		unit = "buc"
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.TrimSpace(code),
		Name:                name,
		Unit:                unit,
		UnitPrice:           valueobject.RoundMoney(unitPrice),
		StockQuantity:       decimal.Zero,
		StockMinimum:        decimal.Zero,
		IsActive:            true,
	}, nil
}

// SetStockMinimum sets the low-stock threshold.
func (p *Product) SetStockMinimum(minimum decimal.Decimal) error {
	if minimum.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock minimum cannot be negative")
	}
	p.StockMinimum = valueobject.RoundQuantity(minimum)
	p.Touch()
	return nil
}

// IsLowStock reports whether stock has reached the minimum threshold.
// It is evaluated on every call and never cached.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity.LessThanOrEqual(p.StockMinimum)
}
