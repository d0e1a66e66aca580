package einvoice

import (
	"context"
	"fmt"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPollBatchSize is the number of invoices loaded per query.
const DefaultPollBatchSize = 50

// PollSummary counts the outcome of one polling pass
type PollSummary struct {
	Checked int
	Updated int
	Pending int
	Failed  int
}

// StatusPoller refreshes the status of in-progress submissions.
type StatusPoller struct {
	invoiceRepo billing.InvoiceRepository
	companyRepo billing.CompanyRepository
	gateway     einvoice.Gateway
	batchSize   int
	metrics     Metrics
	logger      *zap.Logger
}

// NewStatusPoller creates a new StatusPoller
func NewStatusPoller(
	invoiceRepo billing.InvoiceRepository,
	companyRepo billing.CompanyRepository,
	gateway einvoice.Gateway,
	batchSize int,
	logger *zap.Logger,
) *StatusPoller {
	if batchSize <= 0 {
		batchSize = DefaultPollBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusPoller{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		gateway:     gateway,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// SetMetrics sets the outcome recorder
func (p *StatusPoller) SetMetrics(metrics Metrics) {
	p.metrics = metrics
}

type tenantCredentials struct {
	creds einvoice.Credentials
	err   error
}

// PollOnce walks every in-progress submission in id order. A failure on one
// invoice is logged and skipped; only a failure to load a batch aborts the pass.
func (p *StatusPoller) PollOnce(ctx context.Context) (PollSummary, error) {
	var summary PollSummary
	credentials := make(map[uuid.UUID]tenantCredentials)
	after := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		batch, err := p.invoiceRepo.FindPendingEInvoice(ctx, after, p.batchSize)
		if err != nil {
			return summary, fmt.Errorf("load pending e-invoices: %w", err)
		}

		for i := range batch {
			inv := &batch[i]
			summary.Checked++
			status, err := p.pollInvoice(ctx, inv, credentials)
			if err != nil {
				summary.Failed++
				p.logger.Warn("E-invoice status poll failed",
					zap.String("tenant_id", inv.TenantID.String()),
					zap.String("invoice_id", inv.ID.String()),
					zap.String("submission_id", inv.EInvoiceID),
					zap.Error(err),
				)
				continue
			}
			if status.IsTerminal() {
				summary.Updated++
			} else {
				summary.Pending++
			}
		}

		if len(batch) < p.batchSize {
			return summary, nil
		}
		after = batch[len(batch)-1].ID
	}
}

// pollInvoice queries one submission and stores a terminal outcome. Non-terminal
// answers leave the invoice in progress so the next pass asks again.
func (p *StatusPoller) pollInvoice(ctx context.Context, inv *billing.Invoice, cache map[uuid.UUID]tenantCredentials) (billing.EInvoiceStatus, error) {
	entry, ok := cache[inv.TenantID]
	if !ok {
		company, err := p.companyRepo.FindByID(ctx, inv.TenantID)
		if err != nil {
			entry = tenantCredentials{err: fmt.Errorf("load company: %w", err)}
		} else {
			creds, err := einvoice.CredentialsFor(company)
			entry = tenantCredentials{creds: creds, err: err}
		}
		cache[inv.TenantID] = entry
	}
	if entry.err != nil {
		return "", entry.err
	}

	status, err := p.gateway.PollStatus(ctx, inv.EInvoiceID, entry.creds)
	if err != nil {
		return "", err
	}
	if p.metrics != nil {
		p.metrics.RecordStatus(ctx, status)
	}
	if !status.IsTerminal() {
		if status == billing.EInvoiceStatusUnknown {
			p.logger.Info("E-invoice status unknown, will retry",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("submission_id", inv.EInvoiceID),
			)
		}
		return status, nil
	}

	if err := p.invoiceRepo.UpdateEInvoice(ctx, inv.TenantID, inv.ID, inv.EInvoiceID, status); err != nil {
		return "", fmt.Errorf("store status: %w", err)
	}
	p.logger.Info("E-invoice status updated",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("full_number", inv.FullNumber),
		zap.String("status", string(status)),
	)
	return status, nil
}
