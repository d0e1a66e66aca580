package efactura

import (
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newResolvedInvoice builds a numbered invoice with a 19% and a 9% line:
// 1200 + 228 VAT and 100 + 9 VAT.
func newResolvedInvoice(t *testing.T) *billing.ResolvedInvoice {
	t.Helper()
	company, err := billing.NewCompany("Acme Servicii SRL", "RO123456", "ACM")
	require.NoError(t, err)
	company.IBAN = "RO49AAAA1B31007593840000"
	client, err := billing.NewClient(company.TenantID(), billing.ClientTypeCompany, "Beta & Co SRL")
	require.NoError(t, err)
	client.CIF = "RO998877"
	client.City = "Cluj-Napoca"

	inv, err := billing.NewInvoice(company.TenantID(), client.ID, billing.DocumentTypeInvoice, "ACM",
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rate19, rate9 := uuid.New(), uuid.New()
	drafts := []billing.LineDraft{
		{Description: "Consultanta", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(600), Unit: "ora", VATRateID: &rate19},
		{Description: "Carte", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), Unit: "buc", VATRateID: &rate9},
	}
	lines := make([]billing.InvoiceLine, 0, len(drafts))
	for _, d := range drafts {
		line, err := billing.NewInvoiceLine(d)
		require.NoError(t, err)
		lines = append(lines, *line)
	}
	require.NoError(t, inv.ReplaceLines(lines))
	inv.Recalculate(map[uuid.UUID]decimal.Decimal{
		rate19: decimal.NewFromInt(19),
		rate9:  decimal.NewFromInt(9),
	})
	require.NoError(t, inv.AssignNumber(12))

	resolved := &billing.ResolvedInvoice{Invoice: inv, Company: company, Client: client}
	for _, line := range inv.Lines {
		percent := decimal.NewFromInt(19)
		if *line.VATRateID == rate9 {
			percent = decimal.NewFromInt(9)
		}
		resolved.Lines = append(resolved.Lines, billing.ResolvedLine{InvoiceLine: line, VATPercent: percent})
	}
	return resolved
}
