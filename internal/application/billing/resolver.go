package billing

import (
	"context"
	"fmt"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceResolver loads an invoice together with the relations that
// documents and e-invoices need.
type InvoiceResolver struct {
	invoiceRepo billing.InvoiceRepository
	companyRepo billing.CompanyRepository
	clientRepo  billing.ClientRepository
	vatRateRepo billing.VATRateRepository
}

// NewInvoiceResolver creates a new InvoiceResolver
func NewInvoiceResolver(
	invoiceRepo billing.InvoiceRepository,
	companyRepo billing.CompanyRepository,
	clientRepo billing.ClientRepository,
	vatRateRepo billing.VATRateRepository,
) *InvoiceResolver {
	return &InvoiceResolver{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		vatRateRepo: vatRateRepo,
	}
}

// Resolve loads the invoice and its company, client and VAT rates.
func (r *InvoiceResolver) Resolve(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.ResolvedInvoice, error) {
	inv, err := r.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	company, err := r.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	client, err := r.clientRepo.FindByIDForTenant(ctx, tenantID, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		if l.VATRateID != nil {
			ids = append(ids, *l.VATRateID)
		}
	}
	byID := make(map[uuid.UUID]billing.VATRate, len(ids))
	if len(ids) > 0 {
		rates, err := r.vatRateRepo.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("load vat rates: %w", err)
		}
		for _, rate := range rates {
			byID[rate.ID] = rate
		}
	}

	lines := make([]billing.ResolvedLine, len(inv.Lines))
	for i, l := range inv.Lines {
		resolved := billing.ResolvedLine{InvoiceLine: l, VATPercent: decimal.Zero}
		if l.VATRateID != nil {
			if rate, ok := byID[*l.VATRateID]; ok {
				resolved.VATLabel = rate.Label
				resolved.VATPercent = rate.Value
			}
		}
		lines[i] = resolved
	}

	return &billing.ResolvedInvoice{
		Invoice: inv,
		Company: company,
		Client:  client,
		Lines:   lines,
	}, nil
}
