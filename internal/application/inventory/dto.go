package inventory

import (
	"time"

	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntryRequest represents goods received for a product
type StockEntryRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// StockAdjustmentRequest represents a signed stock correction
type StockAdjustmentRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Notes    string          `json:"notes" binding:"required,max=500"`
}

// MovementListFilter represents paging options for a product's ledger
type MovementListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	InvoiceID *uuid.UUID      `json:"invoice_id,omitempty"`
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductStockResponse represents a product's stock level
type ProductStockResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code,omitempty"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	StockMinimum  decimal.Decimal `json:"stock_minimum"`
	IsLowStock    bool            `json:"is_low_stock"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		InvoiceID: m.InvoiceID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

// ToProductStockResponse converts a domain product to a stock response
func ToProductStockResponse(p *inventory.Product) ProductStockResponse {
	return ProductStockResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Unit:          p.Unit,
		StockQuantity: p.StockQuantity,
		StockMinimum:  p.StockMinimum,
		IsLowStock:    p.IsLowStock(),
	}
}
