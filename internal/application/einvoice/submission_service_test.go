package einvoice

import (
	"context"
	"errors"
	"testing"

	appbilling "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type submissionFixture struct {
	tenantID  uuid.UUID
	invoice   billing.Invoice
	repo      *fakeInvoiceRepo
	companies *fakeCompanyRepo
	gateway   *MockGateway
	jobs      *fakeEnqueuer
	service   *SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	company := configuredCompany(t)
	tenantID := company.TenantID()
	inv := submittedInvoice(t, tenantID, "")
	inv.EInvoiceStatus = billing.EInvoiceStatusNone

	f := &submissionFixture{
		tenantID:  tenantID,
		invoice:   inv,
		repo:      &fakeInvoiceRepo{invoices: []billing.Invoice{inv}},
		companies: &fakeCompanyRepo{companies: map[uuid.UUID]*billing.Company{tenantID: company}},
		gateway:   new(MockGateway),
		jobs:      &fakeEnqueuer{},
	}
	resolver := appbilling.NewInvoiceResolver(f.repo, f.companies, fakeClientRepo{}, fakeVATRateRepo{})
	f.service = NewSubmissionService(f.repo, f.companies, resolver, f.gateway, nil)
	f.service.SetJobEnqueuer(f.jobs)
	f.service.SetIdempotencyStore(&memoryKeys{keys: map[string]bool{}})
	return f
}

func TestSubmissionService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("queues once", func(t *testing.T) {
		f := newSubmissionFixture(t)

		require.NoError(t, f.service.Request(ctx, f.tenantID, f.invoice.ID))
		err := f.service.Request(ctx, f.tenantID, f.invoice.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALREADY_QUEUED", domainErr.Code)
		assert.Equal(t, []uuid.UUID{f.invoice.ID}, f.jobs.submissions)
	})

	t.Run("enqueue failure releases the key", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.jobs.err = errors.New("queue full")

		assert.Error(t, f.service.Request(ctx, f.tenantID, f.invoice.ID))
		f.jobs.err = nil
		assert.NoError(t, f.service.Request(ctx, f.tenantID, f.invoice.ID))
	})

	t.Run("draft invoices are rejected", func(t *testing.T) {
		f := newSubmissionFixture(t)
		draft, err := billing.NewInvoice(f.tenantID, uuid.New(), billing.DocumentTypeInvoice, "F-2025", f.invoice.IssueDate)
		require.NoError(t, err)
		f.repo.invoices = append(f.repo.invoices, *draft)

		assert.Error(t, f.service.Request(ctx, f.tenantID, draft.ID))
		assert.Empty(t, f.jobs.submissions)
	})
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores submission id", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.gateway.On("Submit", mock.Anything, mock.AnythingOfType("*billing.ResolvedInvoice"), mock.Anything).Return("5001", nil).Once()

		require.NoError(t, f.service.Submit(ctx, f.tenantID, f.invoice.ID))
		require.Len(t, f.repo.updates, 1)
		assert.Equal(t, "5001", f.repo.updates[0].submissionID)
		assert.Equal(t, billing.EInvoiceStatusInProgress, f.repo.updates[0].status)
	})

	t.Run("gateway error is returned for retry", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.gateway.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("tls handshake")).Once()

		assert.Error(t, f.service.Submit(ctx, f.tenantID, f.invoice.ID))
		assert.Empty(t, f.repo.updates)
	})

	t.Run("store failure after upload is not retried", func(t *testing.T) {
		f := newSubmissionFixture(t)
		core, logs := observer.New(zap.ErrorLevel)
		resolver := appbilling.NewInvoiceResolver(f.repo, f.companies, fakeClientRepo{}, fakeVATRateRepo{})
		f.service = NewSubmissionService(f.repo, f.companies, resolver, f.gateway, zap.New(core))
		f.service.SetJobEnqueuer(f.jobs)
		f.service.SetIdempotencyStore(&memoryKeys{keys: map[string]bool{}})

		require.NoError(t, f.service.Request(ctx, f.tenantID, f.invoice.ID))
		f.gateway.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("5002", nil).Once()
		f.repo.updateErr = errors.New("connection reset")

		require.NoError(t, f.service.Submit(ctx, f.tenantID, f.invoice.ID))
		f.gateway.AssertNumberOfCalls(t, "Submit", 1)

		entries := logs.FilterMessage("E-invoice uploaded but submission id not stored").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "5002", entries[0].ContextMap()["submission_id"])

		err := f.service.Request(ctx, f.tenantID, f.invoice.ID)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALREADY_QUEUED", domainErr.Code)
	})
}

func TestSubmissionService_MarkFailed(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture(t)

	require.NoError(t, f.service.MarkFailed(ctx, f.tenantID, f.invoice.ID, errors.New("3 attempts")))
	require.Len(t, f.repo.updates, 1)
	assert.Equal(t, billing.EInvoiceStatusFailed, f.repo.updates[0].status)
}
