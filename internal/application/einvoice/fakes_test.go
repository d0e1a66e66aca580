package einvoice

import (
	"context"
	"sync"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type eInvoiceUpdate struct {
	invoiceID    uuid.UUID
	submissionID string
	status       billing.EInvoiceStatus
}

// fakeInvoiceRepo serves invoices from memory; unused methods panic through
// the embedded nil interface.
type fakeInvoiceRepo struct {
	billing.InvoiceRepository
	mu        sync.Mutex
	invoices  []billing.Invoice
	afterIDs  []uuid.UUID
	updates   []eInvoiceUpdate
	updateErr error
}

func (r *fakeInvoiceRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	for i := range r.invoices {
		if r.invoices[i].ID == id && r.invoices[i].TenantID == tenantID {
			inv := r.invoices[i]
			return &inv, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeInvoiceRepo) FindPendingEInvoice(_ context.Context, afterID uuid.UUID, limit int) ([]billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterIDs = append(r.afterIDs, afterID)
	out := make([]billing.Invoice, 0, limit)
	passed := afterID == uuid.Nil
	for _, inv := range r.invoices {
		if !passed {
			passed = inv.ID == afterID
			continue
		}
		if inv.EInvoiceStatus != billing.EInvoiceStatusInProgress {
			continue
		}
		out = append(out, inv)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateEInvoice(_ context.Context, _ uuid.UUID, id uuid.UUID, submissionID string, status billing.EInvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates = append(r.updates, eInvoiceUpdate{invoiceID: id, submissionID: submissionID, status: status})
	return nil
}

type fakeCompanyRepo struct {
	billing.CompanyRepository
	companies map[uuid.UUID]*billing.Company
	lookups   int
}

func (r *fakeCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Company, error) {
	r.lookups++
	if c, ok := r.companies[id]; ok {
		return c, nil
	}
	return nil, errNotFound
}

type fakeClientRepo struct {
	billing.ClientRepository
}

func (fakeClientRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Client, error) {
	c, err := billing.NewClient(tenantID, billing.ClientTypeCompany, "Client SRL")
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

type fakeVATRateRepo struct {
	billing.VATRateRepository
}

func (fakeVATRateRepo) FindByIDs(context.Context, uuid.UUID, []uuid.UUID) ([]billing.VATRate, error) {
	return nil, nil
}

// MockGateway is a mock implementation of einvoice.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Submit(ctx context.Context, invoice *billing.ResolvedInvoice, creds einvoice.Credentials) (string, error) {
	args := m.Called(ctx, invoice, creds)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) PollStatus(ctx context.Context, submissionID string, creds einvoice.Credentials) (billing.EInvoiceStatus, error) {
	args := m.Called(ctx, submissionID, creds)
	return args.Get(0).(billing.EInvoiceStatus), args.Error(1)
}

type fakeEnqueuer struct {
	submissions []uuid.UUID
	err         error
}

func (f *fakeEnqueuer) EnqueueDocumentGeneration(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (f *fakeEnqueuer) EnqueueEInvoiceSubmission(_ context.Context, _ uuid.UUID, invoiceID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.submissions = append(f.submissions, invoiceID)
	return nil
}

type memoryKeys struct {
	keys map[string]bool
}

func (m *memoryKeys) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryKeys) Forget(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func (m *memoryKeys) Close() error { return nil }
