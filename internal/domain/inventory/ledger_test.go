package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore applies movements to an in-memory stock table.
type memoryStore struct {
	mu        sync.Mutex
	stock     map[uuid.UUID]decimal.Decimal
	movements []StockMovement
	failOn    int
}

func newMemoryStore(products ...uuid.UUID) *memoryStore {
	s := &memoryStore{stock: make(map[uuid.UUID]decimal.Decimal)}
	for _, p := range products {
		s.stock[p] = decimal.Zero
	}
	return s
}

func (s *memoryStore) Append(_ context.Context, m *StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn > 0 && len(s.movements)+1 == s.failOn {
		return errors.New("store unavailable")
	}
	current, ok := s.stock[m.ProductID]
	if !ok {
		return shared.ErrNotFound
	}
	s.stock[m.ProductID] = current.Add(m.Quantity)
	s.movements = append(s.movements, *m)
	return nil
}

func (s *memoryStore) sum(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.movements {
		if m.ProductID == productID {
			total = total.Add(m.Quantity)
		}
	}
	return total
}

func TestLedger_StockConservation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	store := newMemoryStore(productID)
	ledger := NewLedger(store)

	_, err := ledger.RecordAdjustment(ctx, tenantID, productID, decimal.NewFromInt(100), "Stoc inițial")
	require.NoError(t, err)
	_, err = ledger.RecordEntry(ctx, tenantID, productID, decimal.NewFromInt(20), decimal.RequireFromString("4.50"), "NIR 12")
	require.NoError(t, err)

	invoiceID := uuid.New()
	exits, err := ledger.RecordExitForInvoice(ctx, tenantID, invoiceID, "F-2025-0001", []ExitLine{
		{ProductID: productID, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	require.Len(t, exits, 1)

	assert.Equal(t, "115", store.stock[productID].String())
	assert.True(t, store.sum(productID).Equal(store.stock[productID]))
	assert.Equal(t, MovementTypeExit, exits[0].Type)
	assert.Equal(t, "-5", exits[0].Quantity.String())
	assert.Equal(t, "Factură F-2025-0001", exits[0].Notes)
	require.NotNil(t, exits[0].InvoiceID)
	assert.Equal(t, invoiceID, *exits[0].InvoiceID)
}

func TestLedger_ReverseInvoiceExits(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	store := newMemoryStore(productID)
	ledger := NewLedger(store)
	invoiceID := uuid.New()

	exits, err := ledger.RecordExitForInvoice(ctx, tenantID, invoiceID, "F-2025-0002", []ExitLine{
		{ProductID: productID, Quantity: decimal.NewFromInt(3)},
	})
	require.NoError(t, err)

	reversed, err := ledger.ReverseInvoiceExits(ctx, tenantID, invoiceID, "F-2025-0002", exits)
	require.NoError(t, err)
	require.Len(t, reversed, 1)
	assert.Equal(t, MovementTypeAdjustment, reversed[0].Type)
	assert.Equal(t, "3", reversed[0].Quantity.String())
	assert.Equal(t, "Storno F-2025-0002", reversed[0].Notes)
	assert.True(t, store.stock[productID].IsZero())
}

func TestLedger_NegativeStockIsAllowed(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	store := newMemoryStore(productID)

	_, err := NewLedger(store).RecordExitForInvoice(ctx, uuid.New(), uuid.New(), "F-2025-0003", []ExitLine{
		{ProductID: productID, Quantity: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, "-2", store.stock[productID].String())
}

func TestLedger_Errors(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()

	t.Run("entry requires positive quantity", func(t *testing.T) {
		ledger := NewLedger(newMemoryStore(productID))
		_, err := ledger.RecordEntry(ctx, tenantID, productID, decimal.Zero, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("adjustment rejects zero", func(t *testing.T) {
		ledger := NewLedger(newMemoryStore(productID))
		_, err := ledger.RecordAdjustment(ctx, tenantID, productID, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("unknown product", func(t *testing.T) {
		ledger := NewLedger(newMemoryStore())
		_, err := ledger.RecordEntry(ctx, tenantID, productID, decimal.NewFromInt(1), decimal.Zero, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("store failure stops the batch", func(t *testing.T) {
		other := uuid.New()
		store := newMemoryStore(productID, other)
		store.failOn = 2
		_, err := NewLedger(store).RecordExitForInvoice(ctx, tenantID, uuid.New(), "F-1", []ExitLine{
			{ProductID: productID, Quantity: decimal.NewFromInt(1)},
			{ProductID: other, Quantity: decimal.NewFromInt(1)},
		})
		assert.Error(t, err)
		assert.Len(t, store.movements, 1)
	})
}

func TestProduct_IsLowStock(t *testing.T) {
	p, err := NewProduct(uuid.New(), "P-1", "Momeală raticidă", "kg", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, p.SetStockMinimum(decimal.NewFromInt(5)))

	tests := []struct {
		stock string
		low   bool
	}{
		{"10", false},
		{"5.001", false},
		{"5", true},
		{"0", true},
		{"-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.stock, func(t *testing.T) {
			p.StockQuantity = decimal.RequireFromString(tt.stock)
			assert.Equal(t, tt.low, p.IsLowStock())
		})
	}
}
