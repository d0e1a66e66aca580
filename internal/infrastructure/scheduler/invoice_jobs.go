package scheduler

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentGenerator renders and stores an invoice document
type DocumentGenerator interface {
	Generate(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// EInvoiceSubmitter uploads invoices and records permanent failures
type EInvoiceSubmitter interface {
	Submit(ctx context.Context, tenantID, invoiceID uuid.UUID) error
	MarkFailed(ctx context.Context, tenantID, invoiceID uuid.UUID, cause error) error
}

// RegisterInvoiceJobs wires the invoice job types into s. A document job
// that runs out of attempts only logs: the invoice keeps an empty document
// locator. A submission that runs out of attempts is marked failed.
func RegisterInvoiceJobs(s *Scheduler, documents DocumentGenerator, submitter EInvoiceSubmitter) {
	s.Register(JobTypeGenerateDocument, ExecutorFunc(func(ctx context.Context, job *Job) error {
		return documents.Generate(ctx, job.TenantID, job.InvoiceID)
	}))
	s.Register(JobTypeSubmitEInvoice, ExecutorFunc(func(ctx context.Context, job *Job) error {
		return submitter.Submit(ctx, job.TenantID, job.InvoiceID)
	}))

	s.OnExhausted(func(ctx context.Context, job *Job, cause error) {
		if job.Type != JobTypeSubmitEInvoice {
			return
		}
		if err := submitter.MarkFailed(ctx, job.TenantID, job.InvoiceID, cause); err != nil {
			s.logger.Error("Failed to mark e-invoice submission as failed",
				zap.String("tenant_id", job.TenantID.String()),
				zap.String("invoice_id", job.InvoiceID.String()),
				zap.Error(err),
			)
		}
	})
}
