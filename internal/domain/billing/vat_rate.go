package billing

import (
	"fmt"
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATRate is a named VAT percentage. Lines reference it by id.
type VATRate struct {
	shared.TenantAggregateRoot
	Value       decimal.Decimal // percentage, e.g. 21.00
	Label       string
	Description string
	IsDefault   bool
	IsActive    bool
	SortOrder   int
}

// NewVATRate creates an active, non-default rate.
func NewVATRate(tenantID uuid.UUID, value decimal.Decimal, label string) (*VATRate, error) {
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_VAT_RATE", fmt.Sprintf("VAT rate %s is outside 0..100", value))
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "VAT rate label cannot be empty")
	}
	return &VATRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Value:               value.Round(2),
		Label:               label,
		IsActive:            true,
	}, nil
}

// DefaultVATRates returns the rates every new tenant starts with.
func DefaultVATRates(tenantID uuid.UUID) []*VATRate {
	seeds := []struct {
		value       int64
		label       string
		description string
		isDefault   bool
	}{
		{21, "21% - Standard", "Cota standard", true},
		{11, "11% - Redusă", "Cota redusă", false},
		{0, "0% - Scutit", "Scutit de TVA", false},
	}
	rates := make([]*VATRate, 0, len(seeds))
	for i, s := range seeds {
		rate, _ := NewVATRate(tenantID, decimal.NewFromInt(s.value), s.label)
		rate.Description = s.description
		rate.IsDefault = s.isDefault
		rate.SortOrder = i
		rates = append(rates, rate)
	}
	return rates
}

// RateTable maps rate ids to percentages for Invoice.Recalculate.
func RateTable(rates []VATRate) map[uuid.UUID]decimal.Decimal {
	table := make(map[uuid.UUID]decimal.Decimal, len(rates))
	for _, r := range rates {
		table[r.ID] = r.Value
	}
	return table
}

// ErrInactiveVATRate is returned when an inactive rate is made default.
var ErrInactiveVATRate = shared.NewDomainError("INACTIVE_VAT_RATE", "Inactive VAT rate cannot be the default")
