package billing

import (
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineInput is what the calculator needs from one invoice line.
type LineInput struct {
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	VATPercent decimal.Decimal
}

// LineAmounts are the computed money fields of one line.
type LineAmounts struct {
	LineTotal    decimal.Decimal
	VATAmount    decimal.Decimal
	TotalWithVAT decimal.Decimal
}

// Totals are the computed aggregate fields of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	VATTotal decimal.Decimal
	Total    decimal.Decimal
}

// CalculateLine rounds the net amount to two decimals before VAT is applied
// to the rounded value.
func CalculateLine(in LineInput) LineAmounts {
	lineTotal := valueobject.RoundMoney(in.Quantity.Mul(in.UnitPrice))
	vatAmount := valueobject.Percentage(lineTotal, in.VATPercent)
	return LineAmounts{
		LineTotal:    lineTotal,
		VATAmount:    vatAmount,
		TotalWithVAT: lineTotal.Add(vatAmount),
	}
}

// SumLines aggregates already-rounded line amounts. Summing happens only
// after every line has been rounded.
func SumLines(lines []LineAmounts) Totals {
	subtotal := decimal.Zero
	vatTotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
		vatTotal = vatTotal.Add(l.VATAmount)
	}
	return Totals{
		Subtotal: subtotal,
		VATTotal: vatTotal,
		Total:    subtotal.Add(vatTotal),
	}
}

// Calculate computes every line first and then the invoice totals.
func Calculate(inputs []LineInput) ([]LineAmounts, Totals) {
	amounts := make([]LineAmounts, len(inputs))
	for i, in := range inputs {
		amounts[i] = CalculateLine(in)
	}
	return amounts, SumLines(amounts)
}
