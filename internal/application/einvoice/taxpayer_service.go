package einvoice

import (
	"context"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/erp/invoicing/internal/domain/shared"
)

// ErrInvalidCIF is returned for codes without digits
var ErrInvalidCIF = shared.NewDomainError("INVALID_CIF", "Fiscal code must contain digits")

// TaxpayerService resolves fiscal codes for prefilling clients and companies
type TaxpayerService struct {
	lookup einvoice.TaxpayerLookup
}

// NewTaxpayerService creates a new TaxpayerService
func NewTaxpayerService(lookup einvoice.TaxpayerLookup) *TaxpayerService {
	return &TaxpayerService{lookup: lookup}
}

// LookupCIF returns the registry record or shared.ErrNotFound
func (s *TaxpayerService) LookupCIF(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error) {
	normalized := billing.NormalizeCIF(cif)
	if normalized == "" {
		return nil, ErrInvalidCIF
	}
	info, err := s.lookup.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, shared.ErrNotFound
	}
	return info, nil
}
