package einvoice

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaxpayerLookup struct {
	mock.Mock
}

func (m *MockTaxpayerLookup) Lookup(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	args := m.Called(ctx, cif)
	info, _ := args.Get(0).(*einvoice.TaxpayerInfo)
	return info, args.Error(1)
}

func TestTaxpayerService_LookupCIF(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and returns the record", func(t *testing.T) {
		lookup := new(MockTaxpayerLookup)
		lookup.On("Lookup", ctx, "14399840").Return(&einvoice.TaxpayerInfo{CIF: "14399840", Name: "Dante"}, nil)

		info, err := NewTaxpayerService(lookup).LookupCIF(ctx, "RO14399840")
		require.NoError(t, err)
		assert.Equal(t, "Dante", info.Name)
		lookup.AssertExpectations(t)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		lookup := new(MockTaxpayerLookup)
		lookup.On("Lookup", ctx, "1").Return(nil, nil)

		_, err := NewTaxpayerService(lookup).LookupCIF(ctx, "1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("code without digits is invalid", func(t *testing.T) {
		lookup := new(MockTaxpayerLookup)

		_, err := NewTaxpayerService(lookup).LookupCIF(ctx, "RO-")
		assert.ErrorIs(t, err, ErrInvalidCIF)
		lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("lookup errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		lookup := new(MockTaxpayerLookup)
		lookup.On("Lookup", ctx, "2").Return(nil, boom)

		_, err := NewTaxpayerService(lookup).LookupCIF(ctx, "2")
		assert.ErrorIs(t, err, boom)
	})
}
