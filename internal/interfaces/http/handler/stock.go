package handler

import (
	"context"

	inventoryapp "github.com/erp/invoicing/internal/application/inventory"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockService is the stock ledger the handler exposes
type StockService interface {
	GetStock(ctx context.Context, tenantID, productID uuid.UUID) (*inventoryapp.ProductStockResponse, error)
	RecordEntry(ctx context.Context, tenantID, productID uuid.UUID, req inventoryapp.StockEntryRequest) (*inventoryapp.MovementResponse, error)
	RecordAdjustment(ctx context.Context, tenantID, productID uuid.UUID, req inventoryapp.StockAdjustmentRequest) (*inventoryapp.MovementResponse, error)
	ListMovements(ctx context.Context, tenantID, productID uuid.UUID, filter inventoryapp.MovementListFilter) ([]inventoryapp.MovementResponse, int64, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]inventoryapp.ProductStockResponse, error)
}

// StockHandler handles product stock endpoints
type StockHandler struct {
	BaseHandler
	stock StockService
}

// NewStockHandler creates a StockHandler
func NewStockHandler(stock StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// GetStock handles GET /products/:id/stock
func (h *StockHandler) GetStock(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	stock, err := h.stock.GetStock(c.Request.Context(), middleware.GetTenantID(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// RecordEntry handles POST /products/:id/stock/entries
func (h *StockHandler) RecordEntry(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.StockEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.stock.RecordEntry(c.Request.Context(), middleware.GetTenantID(c), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// RecordAdjustment handles POST /products/:id/stock/adjustments
func (h *StockHandler) RecordAdjustment(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.StockAdjustmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.stock.RecordAdjustment(c.Request.Context(), middleware.GetTenantID(c), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ListMovements handles GET /products/:id/stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	movements, total, err := h.stock.ListMovements(c.Request.Context(), middleware.GetTenantID(c), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListLowStock handles GET /products/low-stock
func (h *StockHandler) ListLowStock(c *gin.Context) {
	products, err := h.stock.ListLowStock(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}
