package billing

import (
	"context"
	"sync"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/inventory"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType()
	}
	return out
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindPendingEInvoice(ctx context.Context, afterID uuid.UUID, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) UpdateDocumentPath(ctx context.Context, tenantID, id uuid.UUID, path string) error {
	return m.Called(ctx, tenantID, id, path).Error(0)
}

func (m *MockInvoiceRepository) UpdateEInvoice(ctx context.Context, tenantID, id uuid.UUID, submissionID string, status billing.EInvoiceStatus) error {
	return m.Called(ctx, tenantID, id, submissionID, status).Error(0)
}

func (m *MockInvoiceRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockVATRateRepository is a mock implementation of billing.VATRateRepository
type MockVATRateRepository struct {
	mock.Mock
}

func (m *MockVATRateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.VATRate, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.VATRate), args.Error(1)
}

func (m *MockVATRateRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]billing.VATRate, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.VATRate), args.Error(1)
}

func (m *MockVATRateRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]billing.VATRate, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.VATRate), args.Error(1)
}

func (m *MockVATRateRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*billing.VATRate, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.VATRate), args.Error(1)
}

func (m *MockVATRateRepository) Save(ctx context.Context, rate *billing.VATRate) error {
	return m.Called(ctx, rate).Error(0)
}

func (m *MockVATRateRepository) SetDefault(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockCompanyRepository is a mock implementation of billing.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *billing.Company) error {
	return m.Called(ctx, company).Error(0)
}

// MockClientRepository is a mock implementation of billing.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *billing.Client) error {
	return m.Called(ctx, client).Error(0)
}

// MockContractRepository is a mock implementation of billing.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Contract), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, contract *billing.Contract) error {
	return m.Called(ctx, contract).Error(0)
}

// MockSequenceAllocator is a mock implementation of billing.SequenceAllocator
type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) NextNumber(ctx context.Context, tenantID uuid.UUID, series string) (uint, error) {
	args := m.Called(ctx, tenantID, series)
	return args.Get(0).(uint), args.Error(1)
}

// MockMovementStore is a mock implementation of inventory.MovementStore
type MockMovementStore struct {
	mock.Mock
}

func (m *MockMovementStore) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
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

// MockJobEnqueuer is a mock implementation of JobEnqueuer
type MockJobEnqueuer struct {
	mock.Mock
}

func (m *MockJobEnqueuer) EnqueueDocumentGeneration(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

func (m *MockJobEnqueuer) EnqueueEInvoiceSubmission(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return m.Called(ctx, tenantID, invoiceID).Error(0)
}

// fakeTxScope runs fn directly against the mocks
type fakeTxScope struct {
	invoices  *MockInvoiceRepository
	allocator *MockSequenceAllocator
	store     *MockMovementStore
	movements *MockMovementRepository
	rates     *MockVATRateRepository
	jobs      *MockJobEnqueuer
}

func (s *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *fakeTxScope) InvoiceRepo() billing.InvoiceRepository       { return s.invoices }
func (s *fakeTxScope) SequenceAllocator() billing.SequenceAllocator { return s.allocator }
func (s *fakeTxScope) MovementStore() inventory.MovementStore       { return s.store }
func (s *fakeTxScope) MovementRepo() inventory.MovementRepository   { return s.movements }
func (s *fakeTxScope) VATRateRepo() billing.VATRateRepository       { return s.rates }
func (s *fakeTxScope) Jobs() JobEnqueuer                            { return s.jobs }
