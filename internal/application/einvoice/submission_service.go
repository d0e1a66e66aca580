package einvoice

import (
	"context"
	"fmt"
	"time"

	appbilling "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// submissionKeyTTL bounds how long a queued submission blocks a second request.
const submissionKeyTTL = 6 * time.Hour

// Metrics records e-invoice outcomes
type Metrics interface {
	RecordSubmission(ctx context.Context, success bool)
	RecordStatus(ctx context.Context, status billing.EInvoiceStatus)
}

// SubmissionService queues and performs e-invoice uploads.
type SubmissionService struct {
	invoiceRepo billing.InvoiceRepository
	companyRepo billing.CompanyRepository
	resolver    *appbilling.InvoiceResolver
	gateway     einvoice.Gateway
	jobs        appbilling.JobEnqueuer
	idempotency shared.IdempotencyStore
	metrics     Metrics
	logger      *zap.Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	invoiceRepo billing.InvoiceRepository,
	companyRepo billing.CompanyRepository,
	resolver *appbilling.InvoiceResolver,
	gateway einvoice.Gateway,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		resolver:    resolver,
		gateway:     gateway,
		logger:      logger,
	}
}

// SetJobEnqueuer sets the queue submissions run on
func (s *SubmissionService) SetJobEnqueuer(jobs appbilling.JobEnqueuer) {
	s.jobs = jobs
}

// SetIdempotencyStore sets the store that suppresses duplicate requests
func (s *SubmissionService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetMetrics sets the outcome recorder
func (s *SubmissionService) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

func submissionKey(invoiceID uuid.UUID) string {
	return "einvoice:submit:" + invoiceID.String()
}

// Request validates that the invoice can be submitted and queues the upload.
func (s *SubmissionService) Request(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if err := inv.CanSubmitEInvoice(); err != nil {
		return err
	}
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if _, err := einvoice.CredentialsFor(company); err != nil {
		return err
	}
	if s.jobs == nil {
		return shared.NewDomainError("JOBS_UNAVAILABLE", "Background jobs are not configured")
	}

	key := submissionKey(invoiceID)
	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, key, submissionKeyTTL)
		if err != nil {
			return fmt.Errorf("mark submission: %w", err)
		}
		if !fresh {
			return shared.NewDomainError("ALREADY_QUEUED", "E-invoice submission is already queued")
		}
	}

	if err := s.jobs.EnqueueEInvoiceSubmission(ctx, tenantID, invoiceID); err != nil {
		s.forget(ctx, key)
		return err
	}
	return nil
}

// Submit uploads the invoice. It runs from the background queue; a returned
// error makes the queue retry, so nothing after a successful upload returns
// one.
func (s *SubmissionService) Submit(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	resolved, err := s.resolver.Resolve(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	inv := resolved.Invoice
	if inv.EInvoiceID != "" && inv.EInvoiceStatus != billing.EInvoiceStatusFailed {
		// a previous attempt already went through
		return nil
	}
	creds, err := einvoice.CredentialsFor(resolved.Company)
	if err != nil {
		return err
	}

	submissionID, err := s.gateway.Submit(ctx, resolved, creds)
	if err != nil {
		s.logger.Warn("E-invoice submission attempt failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoiceID.String()),
			zap.String("full_number", inv.FullNumber),
			zap.Error(err),
		)
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission(ctx, true)
	}
	if err := s.invoiceRepo.UpdateEInvoice(ctx, tenantID, invoiceID, submissionID, billing.EInvoiceStatusInProgress); err != nil {
		// The gateway holds the upload; retrying would file it twice. The
		// submission key stays set so the invoice cannot be requested again
		// until it expires.
		s.logger.Error("E-invoice uploaded but submission id not stored",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoiceID.String()),
			zap.String("full_number", inv.FullNumber),
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		return nil
	}
	s.forget(ctx, submissionKey(invoiceID))
	s.logger.Info("E-invoice submitted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("submission_id", submissionID),
	)
	return nil
}

// MarkFailed flags an invoice whose submission exhausted its retries.
func (s *SubmissionService) MarkFailed(ctx context.Context, tenantID, invoiceID uuid.UUID, cause error) error {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	s.forget(ctx, submissionKey(invoiceID))
	if s.metrics != nil {
		s.metrics.RecordSubmission(ctx, false)
	}
	s.logger.Error("E-invoice submission failed permanently",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("full_number", inv.FullNumber),
		zap.Error(cause),
	)
	return s.invoiceRepo.UpdateEInvoice(ctx, tenantID, invoiceID, inv.EInvoiceID, billing.EInvoiceStatusFailed)
}

func (s *SubmissionService) forget(ctx context.Context, key string) {
	if s.idempotency == nil {
		return
	}
	if err := s.idempotency.Forget(ctx, key); err != nil {
		s.logger.Warn("Failed to clear submission key", zap.String("key", key), zap.Error(err))
	}
}
