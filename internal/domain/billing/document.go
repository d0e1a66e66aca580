package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// ResolvedLine is an invoice line with its VAT rate resolved.
type ResolvedLine struct {
	InvoiceLine
	VATLabel   string
	VATPercent decimal.Decimal
}

// ResolvedInvoice is an invoice with every relation an outside consumer
// needs: issuing company, client and lines with VAT labels.
type ResolvedInvoice struct {
	Invoice *Invoice
	Company *Company
	Client  *Client
	Lines   []ResolvedLine
}

// DocumentGenerator produces a durable document for an invoice and returns
// where it was stored. The caller does not know the document's format.
type DocumentGenerator interface {
	Generate(ctx context.Context, invoice *ResolvedInvoice) (string, error)
}
