package inventory

import (
	"context"
	"testing"

	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of inventory.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]inventory.Product, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return m.Called(ctx, product).Error(0)
}

// MockMovementRepository is a mock implementation of inventory.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, tenantID, productID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockMovementRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) SumByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockMovementStore is a mock implementation of inventory.MovementStore
type MockMovementStore struct {
	mock.Mock
}

func (m *MockMovementStore) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
}

func newTestProduct(t *testing.T, tenantID uuid.UUID, stock, minimum int64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(tenantID, "P-001", "Momeală raticidă", "kg", decimal.NewFromInt(25))
	require.NoError(t, err)
	require.NoError(t, p.SetStockMinimum(decimal.NewFromInt(minimum)))
	p.StockQuantity = decimal.NewFromInt(stock)
	return p
}

func TestStockService_RecordEntry(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("appends positive movement", func(t *testing.T) {
		products := new(MockProductRepository)
		store := new(MockMovementStore)
		svc := NewStockService(products, new(MockMovementRepository), store, nil)
		product := newTestProduct(t, tenantID, 100, 10)

		products.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		store.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Type == inventory.MovementTypeEntry && m.Quantity.Equal(decimal.NewFromInt(20))
		})).Return(nil).Once()

		resp, err := svc.RecordEntry(ctx, tenantID, product.ID, StockEntryRequest{
			Quantity:  decimal.NewFromInt(20),
			UnitPrice: decimal.RequireFromString("12.50"),
			Notes:     "NIR 44",
		})
		require.NoError(t, err)
		assert.Equal(t, "entry", resp.Type)
		assert.Equal(t, "12.50", resp.UnitPrice.StringFixed(2))
		store.AssertExpectations(t)
	})

	t.Run("unknown product", func(t *testing.T) {
		products := new(MockProductRepository)
		store := new(MockMovementStore)
		svc := NewStockService(products, new(MockMovementRepository), store, nil)
		productID := uuid.New()

		products.On("FindByIDForTenant", ctx, tenantID, productID).Return(nil, shared.ErrNotFound).Once()

		_, err := svc.RecordEntry(ctx, tenantID, productID, StockEntryRequest{Quantity: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		products := new(MockProductRepository)
		store := new(MockMovementStore)
		svc := NewStockService(products, new(MockMovementRepository), store, nil)
		product := newTestProduct(t, tenantID, 0, 0)

		products.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()

		_, err := svc.RecordEntry(ctx, tenantID, product.ID, StockEntryRequest{Quantity: decimal.NewFromInt(-3)})
		assert.Error(t, err)
		store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestStockService_RecordAdjustment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	products := new(MockProductRepository)
	store := new(MockMovementStore)
	svc := NewStockService(products, new(MockMovementRepository), store, nil)
	product := newTestProduct(t, tenantID, 10, 0)

	products.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
	store.On("Append", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Type == inventory.MovementTypeAdjustment && m.Quantity.Equal(decimal.NewFromInt(-2))
	})).Return(nil).Once()

	resp, err := svc.RecordAdjustment(ctx, tenantID, product.ID, StockAdjustmentRequest{
		Quantity: decimal.NewFromInt(-2),
		Notes:    "Inventar anual",
	})
	require.NoError(t, err)
	assert.Equal(t, "adjustment", resp.Type)
	assert.Equal(t, "Inventar anual", resp.Notes)
}

func TestStockService_ListLowStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	products := new(MockProductRepository)
	svc := NewStockService(products, new(MockMovementRepository), new(MockMovementStore), nil)

	low := newTestProduct(t, tenantID, 2, 5)
	atMinimum := newTestProduct(t, tenantID, 5, 5)
	products.On("FindLowStock", ctx, tenantID).Return([]inventory.Product{*low, *atMinimum}, nil).Once()

	resp, err := svc.ListLowStock(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.True(t, resp[0].IsLowStock)
	assert.True(t, resp[1].IsLowStock)
}

func TestStockService_VerifyStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	tests := []struct {
		name    string
		cached  int64
		ledger  int64
		matches bool
	}{
		{"in sync", 115, 115, true},
		{"drifted", 115, 110, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductRepository)
			movements := new(MockMovementRepository)
			svc := NewStockService(products, movements, new(MockMovementStore), nil)
			product := newTestProduct(t, tenantID, tt.cached, 0)

			products.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
			movements.On("SumByProduct", ctx, tenantID, product.ID).Return(decimal.NewFromInt(tt.ledger), nil).Once()

			ok, err := svc.VerifyStock(ctx, tenantID, product.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, ok)
		})
	}
}
