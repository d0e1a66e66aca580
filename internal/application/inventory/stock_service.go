package inventory

import (
	"context"

	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockService exposes the stock ledger to callers outside invoicing.
type StockService struct {
	productRepo  inventory.ProductRepository
	movementRepo inventory.MovementRepository
	ledger       *inventory.Ledger
	logger       *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	productRepo inventory.ProductRepository,
	movementRepo inventory.MovementRepository,
	store inventory.MovementStore,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		ledger:       inventory.NewLedger(store),
		logger:       logger,
	}
}

// GetStock returns a product's current stock level
func (s *StockService) GetStock(ctx context.Context, tenantID, productID uuid.UUID) (*ProductStockResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	resp := ToProductStockResponse(product)
	return &resp, nil
}

// RecordEntry appends a positive movement for goods received
func (s *StockService) RecordEntry(ctx context.Context, tenantID, productID uuid.UUID, req StockEntryRequest) (*MovementResponse, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID); err != nil {
		return nil, err
	}
	movement, err := s.ledger.RecordEntry(ctx, tenantID, productID, req.Quantity, req.UnitPrice, req.Notes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stock entry recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", productID.String()),
		zap.String("quantity", movement.Quantity.String()),
	)
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// RecordAdjustment appends a signed correction
func (s *StockService) RecordAdjustment(ctx context.Context, tenantID, productID uuid.UUID, req StockAdjustmentRequest) (*MovementResponse, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID); err != nil {
		return nil, err
	}
	movement, err := s.ledger.RecordAdjustment(ctx, tenantID, productID, req.Quantity, req.Notes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stock adjustment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", productID.String()),
		zap.String("quantity", movement.Quantity.String()),
	)
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// ListMovements returns a product's ledger, newest first
func (s *StockService) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID); err != nil {
		return nil, 0, err
	}
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	movements, total, err := s.movementRepo.FindByProduct(ctx, tenantID, productID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, total, nil
}

// ListLowStock returns active products at or below their minimum,
// the furthest below first
func (s *StockService) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]ProductStockResponse, error) {
	products, err := s.productRepo.FindLowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]ProductStockResponse, len(products))
	for i := range products {
		out[i] = ToProductStockResponse(&products[i])
	}
	return out, nil
}

// VerifyStock reports whether a product's cached stock equals the sum of
// its movements.
func (s *StockService) VerifyStock(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return false, err
	}
	sum, err := s.movementRepo.SumByProduct(ctx, tenantID, productID)
	if err != nil {
		return false, err
	}
	if !sum.Equal(product.StockQuantity) {
		s.logger.Warn("Stock drift detected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.String("cached", product.StockQuantity.String()),
			zap.String("ledger", sum.String()),
		)
		return false, nil
	}
	return true, nil
}
