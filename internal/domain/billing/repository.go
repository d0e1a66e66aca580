package billing

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings. Nil and empty fields match all.
type InvoiceFilter struct {
	shared.Filter
	Status     *InvoiceStatus
	ClientID   *uuid.UUID
	Type       *DocumentType
	Series     string
	IssuedFrom *time.Time
	IssuedTo   *time.Time
}

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	// FindByIDForTenant loads an invoice with its lines ordered by sort order.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAllForTenant lists invoices without lines.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindPendingEInvoice returns up to limit invoices across all tenants whose
	// e-invoice status is in_progress, ordered by id and starting after afterID.
	FindPendingEInvoice(ctx context.Context, afterID uuid.UUID, limit int) ([]Invoice, error)

	// Save creates or updates an invoice and replaces its lines.
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with an optimistic version check.
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// UpdateDocumentPath stores the document locator without touching the version.
	UpdateDocumentPath(ctx context.Context, tenantID, id uuid.UUID, path string) error

	// UpdateEInvoice stores submission id and status without touching the version.
	UpdateEInvoice(ctx context.Context, tenantID, id uuid.UUID, submissionID string, status EInvoiceStatus) error

	// SoftDelete marks the invoice deleted; the number stays consumed.
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
}

// VATRateRepository defines persistence operations for VAT rates
type VATRateRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VATRate, error)
	// FindByIDs returns rates including inactive ones, so historical lines still resolve.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]VATRate, error)
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]VATRate, error)
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*VATRate, error)
	Save(ctx context.Context, rate *VATRate) error
	// SetDefault makes id the only default rate of the tenant.
	SetDefault(ctx context.Context, tenantID, id uuid.UUID) error
}

// CompanyRepository defines persistence operations for companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Save(ctx context.Context, company *Company) error
}

// ClientRepository defines persistence operations for clients
type ClientRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	Save(ctx context.Context, client *Client) error
}

// ContractRepository defines persistence operations for contracts
type ContractRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	Save(ctx context.Context, contract *Contract) error
}
