package billing

import (
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), uuid.New(), DocumentTypeInvoice, "F-2025", time.Date(2025, 3, 10, 15, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	return inv
}

func newTestLine(t *testing.T, qty, price string, rateID uuid.UUID, productID *uuid.UUID) InvoiceLine {
	t.Helper()
	line, err := NewInvoiceLine(LineDraft{
		ProductID:   productID,
		Description: "Dezinsecție",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		VATRateID:   &rateID,
	})
	require.NoError(t, err)
	return *line
}

// ==================== Construction ====================

func TestNewInvoice(t *testing.T) {
	t.Run("creates draft with defaults", func(t *testing.T) {
		inv := newTestInvoice(t)

		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, "F-2025", inv.Series)
		assert.True(t, inv.NeedsNumber())
		assert.Equal(t, PaymentMethodBankTransfer, inv.PaymentMethod)
		assert.Equal(t, "RON", string(inv.Currency))
		require.NotNil(t, inv.DueDate)
		assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), *inv.DueDate)
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name     string
			tenantID uuid.UUID
			clientID uuid.UUID
			docType  DocumentType
			series   string
		}{
			{"empty tenant", uuid.Nil, uuid.New(), DocumentTypeInvoice, "F-2025"},
			{"empty client", uuid.New(), uuid.Nil, DocumentTypeInvoice, "F-2025"},
			{"unknown type", uuid.New(), uuid.New(), DocumentType("bill"), "F-2025"},
			{"empty series", uuid.New(), uuid.New(), DocumentTypeInvoice, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewInvoice(tt.tenantID, tt.clientID, tt.docType, tt.series, time.Now())
				assert.Error(t, err)
			})
		}
	})
}

func TestNewInvoiceLine(t *testing.T) {
	rateID := uuid.New()

	t.Run("rounds quantity and price", func(t *testing.T) {
		line, err := NewInvoiceLine(LineDraft{
			Description: "Deratizare",
			Quantity:    decimal.RequireFromString("1.23456"),
			UnitPrice:   decimal.RequireFromString("9.999"),
			VATRateID:   &rateID,
		})
		require.NoError(t, err)
		assert.Equal(t, "1.235", line.Quantity.StringFixed(3))
		assert.Equal(t, "10.00", line.UnitPrice.StringFixed(2))
		assert.Equal(t, DefaultUnit, line.Unit)
	})

	t.Run("requires a VAT rate", func(t *testing.T) {
		_, err := NewInvoiceLine(LineDraft{
			Description: "Deratizare",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrVATRateRequired)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewInvoiceLine(LineDraft{
			Description: "Deratizare",
			Quantity:    decimal.Zero,
			UnitPrice:   decimal.NewFromInt(1),
			VATRateID:   &rateID,
		})
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewInvoiceLine(LineDraft{
			Description: "Deratizare",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(-1),
			VATRateID:   &rateID,
		})
		assert.Error(t, err)
	})
}

// ==================== Recalculation ====================

func TestInvoice_Recalculate(t *testing.T) {
	standard := uuid.New()
	reduced := uuid.New()
	rates := map[uuid.UUID]decimal.Decimal{
		standard: decimal.NewFromInt(21),
		reduced:  decimal.NewFromInt(11),
	}

	t.Run("two line scenario", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ReplaceLines([]InvoiceLine{
			newTestLine(t, "1", "100.00", standard, nil),
			newTestLine(t, "2", "50.00", reduced, nil),
		}))

		result := inv.Recalculate(rates)

		assert.False(t, result.HasAnomalies())
		assert.Equal(t, "200.00", inv.Subtotal.StringFixed(2))
		assert.Equal(t, "32.00", inv.VATTotal.StringFixed(2))
		assert.Equal(t, "232.00", inv.Total.StringFixed(2))
		assert.Equal(t, "21.00", inv.Lines[0].VATAmount.StringFixed(2))
		assert.Equal(t, "11.00", inv.Lines[1].VATAmount.StringFixed(2))
		assert.Equal(t, "111.00", inv.Lines[1].TotalWithVAT.StringFixed(2))
	})

	t.Run("rounds line before applying VAT", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ReplaceLines([]InvoiceLine{{
			ID:          uuid.New(),
			Description: "Prestări",
			Quantity:    decimal.NewFromInt(3),
			UnitPrice:   decimal.RequireFromString("10.005"),
			VATRateID:   &standard,
		}}))

		inv.Recalculate(rates)

		assert.Equal(t, "30.02", inv.Lines[0].LineTotal.StringFixed(2))
		assert.Equal(t, "6.30", inv.Lines[0].VATAmount.StringFixed(2))
		assert.Equal(t, "36.32", inv.Total.StringFixed(2))
	})

	t.Run("is idempotent", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ReplaceLines([]InvoiceLine{
			newTestLine(t, "1.5", "33.33", standard, nil),
			newTestLine(t, "7", "0.99", reduced, nil),
		}))

		inv.Recalculate(rates)
		first := []decimal.Decimal{inv.Subtotal, inv.VATTotal, inv.Total}
		inv.Recalculate(rates)

		assert.True(t, first[0].Equal(inv.Subtotal))
		assert.True(t, first[1].Equal(inv.VATTotal))
		assert.True(t, first[2].Equal(inv.Total))
	})

	t.Run("unknown rate counts as zero and is reported", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ReplaceLines([]InvoiceLine{
			newTestLine(t, "1", "100", standard, nil),
			newTestLine(t, "1", "50", uuid.New(), nil),
		}))

		result := inv.Recalculate(rates)

		assert.Equal(t, []int{1}, result.MissingVATRate)
		assert.Equal(t, "21.00", inv.VATTotal.StringFixed(2))
		assert.Equal(t, "171.00", inv.Total.StringFixed(2))
	})

	t.Run("empty invoice totals zero", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.Recalculate(rates)
		assert.True(t, inv.Total.IsZero())
	})
}

// ==================== Numbering ====================

func TestInvoice_AssignNumber(t *testing.T) {
	inv := newTestInvoice(t)

	require.NoError(t, inv.AssignNumber(7))
	assert.Equal(t, "F-2025-0007", inv.FullNumber)

	err := inv.AssignNumber(8)
	assert.ErrorIs(t, err, shared.ErrFullNumberAssigned)
	assert.Equal(t, "F-2025-0007", inv.FullNumber)
	assert.Equal(t, uint(7), inv.Number)
}

func TestFormatFullNumber(t *testing.T) {
	assert.Equal(t, "F-2025-0001", FormatFullNumber("F-2025", 1))
	assert.Equal(t, "P-2025-0123", FormatFullNumber("P-2025", 123))
	assert.Equal(t, "F-2025-12345", FormatFullNumber("F-2025", 12345))
}

func TestDefaultSeries(t *testing.T) {
	issued := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "ACME-2026", DefaultSeries("ACME", DocumentTypeInvoice, issued))
	assert.Equal(t, "F-2026", DefaultSeries("", DocumentTypeInvoice, issued))
	assert.Equal(t, "P-2026", DefaultSeries("", DocumentTypeProforma, issued))
}

// ==================== Transitions ====================

func sentInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv := newTestInvoice(t)
	require.NoError(t, inv.AssignNumber(1))
	require.NoError(t, inv.Send())
	return inv
}

func TestInvoice_Send(t *testing.T) {
	t.Run("draft with number is sent", func(t *testing.T) {
		inv := sentInvoice(t)
		assert.Equal(t, InvoiceStatusSent, inv.Status)
	})

	t.Run("requires a number", func(t *testing.T) {
		inv := newTestInvoice(t)
		err := inv.Send()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "number")
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("requires recalculated totals", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.AssignNumber(1))
		require.NoError(t, inv.AddLine(newTestLine(t, "1", "10", uuid.New(), nil)))

		err := inv.Send()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recalculated")

		inv.Recalculate(nil)
		assert.NoError(t, inv.Send())
	})
}

func TestInvoice_TransitionLegality(t *testing.T) {
	t.Run("paid to sent fails", func(t *testing.T) {
		inv := sentInvoice(t)
		require.NoError(t, inv.MarkPaid(time.Now()))
		err := inv.Send()
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("draft to cancelled leaves paid_at null", func(t *testing.T) {
		inv := newTestInvoice(t)
		previous, err := inv.Cancel()
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusDraft, previous)
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.Nil(t, inv.PaidAt)
		assert.NotNil(t, inv.CancelledAt)
	})

	t.Run("sent to paid sets paid_at", func(t *testing.T) {
		inv := sentInvoice(t)
		require.NoError(t, inv.MarkPaid(time.Time{}))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidAt)
	})

	t.Run("draft cannot be paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.Error(t, inv.MarkPaid(time.Now()))
	})

	t.Run("cancelled is final", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Cancel()
		require.NoError(t, err)
		_, err = inv.Cancel()
		assert.Error(t, err)
		assert.Error(t, inv.Send())
	})

	t.Run("paid can be cancelled", func(t *testing.T) {
		inv := sentInvoice(t)
		require.NoError(t, inv.MarkPaid(time.Now()))
		previous, err := inv.Cancel()
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPaid, previous)
	})
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		allowed  bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusCancelled, true},
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusPaid, InvoiceStatusSent, false},
		{InvoiceStatusPaid, InvoiceStatusDraft, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, true},
		{InvoiceStatusCancelled, InvoiceStatusDraft, false},
		{InvoiceStatusCancelled, InvoiceStatusSent, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInvoice_EditOnlyInDraft(t *testing.T) {
	inv := sentInvoice(t)
	err := inv.ReplaceLines(nil)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Error(t, inv.AddLine(newTestLine(t, "1", "1", uuid.New(), nil)))
	assert.Error(t, inv.SetDueDate(time.Now().AddDate(0, 1, 0)))
}

func TestInvoice_RemoveLine(t *testing.T) {
	inv := newTestInvoice(t)
	rate := uuid.New()
	a := newTestLine(t, "1", "10", rate, nil)
	b := newTestLine(t, "1", "20", rate, nil)
	require.NoError(t, inv.ReplaceLines([]InvoiceLine{a, b}))

	require.NoError(t, inv.RemoveLine(a.ID))
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, b.ID, inv.Lines[0].ID)
	assert.Equal(t, 0, inv.Lines[0].SortOrder)

	assert.Error(t, inv.RemoveLine(uuid.New()))
}

func TestInvoice_IsOverdue(t *testing.T) {
	inv := newTestInvoice(t)
	afterDue := inv.DueDate.AddDate(0, 0, 1)

	assert.False(t, inv.IsOverdue(*inv.DueDate))
	assert.True(t, inv.IsOverdue(afterDue))

	require.NoError(t, inv.AssignNumber(1))
	require.NoError(t, inv.Send())
	require.NoError(t, inv.MarkPaid(time.Now()))
	assert.False(t, inv.IsOverdue(afterDue))
}

func TestInvoice_StockLines(t *testing.T) {
	inv := newTestInvoice(t)
	rate := uuid.New()
	product := uuid.New()
	require.NoError(t, inv.ReplaceLines([]InvoiceLine{
		newTestLine(t, "5", "10", rate, &product),
		newTestLine(t, "1", "100", rate, nil),
	}))

	lines := inv.StockLines()
	require.Len(t, lines, 1)
	assert.Equal(t, product, *lines[0].ProductID)
}

func TestInvoice_CanSubmitEInvoice(t *testing.T) {
	inv := newTestInvoice(t)
	assert.Error(t, inv.CanSubmitEInvoice())

	require.NoError(t, inv.AssignNumber(1))
	require.NoError(t, inv.Send())
	assert.NoError(t, inv.CanSubmitEInvoice())

	inv.RecordEInvoiceSubmission("5001")
	assert.Equal(t, EInvoiceStatusInProgress, inv.EInvoiceStatus)
	assert.Error(t, inv.CanSubmitEInvoice())

	inv.MarkEInvoiceFailed()
	assert.NoError(t, inv.CanSubmitEInvoice())
}
