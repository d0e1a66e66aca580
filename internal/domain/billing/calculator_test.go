package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateLine(t *testing.T) {
	tests := []struct {
		name                        string
		qty, price, vat             string
		lineTotal, vatAmount, gross string
	}{
		{"standard rate", "1", "100.00", "21", "100.00", "21.00", "121.00"},
		{"reduced rate", "2", "50.00", "11", "100.00", "11.00", "111.00"},
		{"exempt", "4", "12.50", "0", "50.00", "0.00", "50.00"},
		{"rounds net before vat", "3", "10.005", "21", "30.02", "6.30", "36.32"},
		{"fractional quantity", "0.333", "10.00", "21", "3.33", "0.70", "4.03"},
		{"half up on vat", "1", "0.50", "21", "0.50", "0.11", "0.61"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLine(LineInput{Quantity: d(tt.qty), UnitPrice: d(tt.price), VATPercent: d(tt.vat)})
			assert.Equal(t, tt.lineTotal, got.LineTotal.StringFixed(2))
			assert.Equal(t, tt.vatAmount, got.VATAmount.StringFixed(2))
			assert.Equal(t, tt.gross, got.TotalWithVAT.StringFixed(2))
		})
	}
}

func TestCalculate_SumsRoundedLines(t *testing.T) {
	// Each line rounds 0.005 up; summing unrounded values would give 0.03.
	inputs := []LineInput{
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
		{Quantity: d("1"), UnitPrice: d("0.005"), VATPercent: d("0")},
	}
	lines, totals := Calculate(inputs)

	assert.Len(t, lines, 6)
	assert.Equal(t, "0.06", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.06", totals.Total.StringFixed(2))
}

func TestCalculate_Empty(t *testing.T) {
	lines, totals := Calculate(nil)
	assert.Empty(t, lines)
	assert.True(t, totals.Total.IsZero())
}
