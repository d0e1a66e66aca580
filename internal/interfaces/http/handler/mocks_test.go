package handler

import (
	"context"

	billingapp "github.com/erp/invoicing/internal/application/billing"
	inventoryapp "github.com/erp/invoicing/internal/application/inventory"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceService implements InvoiceService for testing
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) invoice(args mock.Arguments) (*billingapp.InvoiceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req billingapp.CreateInvoiceRequest) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, req))
}

func (m *MockInvoiceService) CreateFromContract(ctx context.Context, tenantID, contractID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, contractID))
}

func (m *MockInvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID))
}

func (m *MockInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billingapp.InvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.UpdateInvoiceRequest) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID, req))
}

func (m *MockInvoiceService) UpdateLines(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.UpdateLinesRequest) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID, req))
}

func (m *MockInvoiceService) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

func (m *MockInvoiceService) EnsureNumber(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID))
}

func (m *MockInvoiceService) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID))
}

func (m *MockInvoiceService) MarkPaid(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.MarkPaidRequest) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID, req))
}

func (m *MockInvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.CancelInvoiceRequest) (*billingapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tenantID, invoiceID, req))
}

func (m *MockInvoiceService) RegenerateDocument(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

// MockEInvoiceRequester implements EInvoiceRequester for testing
type MockEInvoiceRequester struct {
	mock.Mock
}

func (m *MockEInvoiceRequester) Request(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

// MockStockService implements StockService for testing
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) GetStock(ctx context.Context, tenantID, productID uuid.UUID) (*inventoryapp.ProductStockResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ProductStockResponse), args.Error(1)
}

func (m *MockStockService) RecordEntry(ctx context.Context, tenantID, productID uuid.UUID, req inventoryapp.StockEntryRequest) (*inventoryapp.MovementResponse, error) {
	args := m.Called(ctx, tenantID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.MovementResponse), args.Error(1)
}

func (m *MockStockService) RecordAdjustment(ctx context.Context, tenantID, productID uuid.UUID, req inventoryapp.StockAdjustmentRequest) (*inventoryapp.MovementResponse, error) {
	args := m.Called(ctx, tenantID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.MovementResponse), args.Error(1)
}

func (m *MockStockService) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, filter inventoryapp.MovementListFilter) ([]inventoryapp.MovementResponse, int64, error) {
	args := m.Called(ctx, tenantID, productID, filter)
	return args.Get(0).([]inventoryapp.MovementResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockService) ListLowStock(ctx context.Context, tenantID uuid.UUID) ([]inventoryapp.ProductStockResponse, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]inventoryapp.ProductStockResponse), args.Error(1)
}

// MockVATRateService implements VATRateService for testing
type MockVATRateService struct {
	mock.Mock
}

func (m *MockVATRateService) List(ctx context.Context, tenantID uuid.UUID) ([]billingapp.VATRateResponse, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]billingapp.VATRateResponse), args.Error(1)
}

func (m *MockVATRateService) SeedDefaults(ctx context.Context, tenantID uuid.UUID) error {
	return m.Called(ctx, tenantID).Error(0)
}

func (m *MockVATRateService) SetDefault(ctx context.Context, tenantID, rateID uuid.UUID) error {
	return m.Called(ctx, tenantID, rateID).Error(0)
}

// MockTaxpayerService implements TaxpayerService for testing
type MockTaxpayerService struct {
	mock.Mock
}

func (m *MockTaxpayerService) LookupCIF(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	args := m.Called(ctx, cif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*einvoice.TaxpayerInfo), args.Error(1)
}
