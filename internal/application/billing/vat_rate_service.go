package billing

import (
	"context"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATRateResponse represents a VAT rate in API responses
type VATRateResponse struct {
	ID          uuid.UUID       `json:"id"`
	Value       decimal.Decimal `json:"value"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	IsDefault   bool            `json:"is_default"`
	IsActive    bool            `json:"is_active"`
}

// VATRateService manages a tenant's VAT rates
type VATRateService struct {
	repo billing.VATRateRepository
}

// NewVATRateService creates a new VATRateService
func NewVATRateService(repo billing.VATRateRepository) *VATRateService {
	return &VATRateService{repo: repo}
}

// List returns the tenant's active rates
func (s *VATRateService) List(ctx context.Context, tenantID uuid.UUID) ([]VATRateResponse, error) {
	rates, err := s.repo.FindActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]VATRateResponse, len(rates))
	for i, r := range rates {
		out[i] = VATRateResponse{
			ID:          r.ID,
			Value:       r.Value,
			Label:       r.Label,
			Description: r.Description,
			IsDefault:   r.IsDefault,
			IsActive:    r.IsActive,
		}
	}
	return out, nil
}

// SeedDefaults creates the standard rates for a tenant that has none.
func (s *VATRateService) SeedDefaults(ctx context.Context, tenantID uuid.UUID) error {
	existing, err := s.repo.FindActive(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, rate := range billing.DefaultVATRates(tenantID) {
		if err := s.repo.Save(ctx, rate); err != nil {
			return err
		}
	}
	return nil
}

// SetDefault makes a rate the tenant's only default
func (s *VATRateService) SetDefault(ctx context.Context, tenantID, rateID uuid.UUID) error {
	rate, err := s.repo.FindByIDForTenant(ctx, tenantID, rateID)
	if err != nil {
		return err
	}
	if !rate.IsActive {
		return billing.ErrInactiveVATRate
	}
	return s.repo.SetDefault(ctx, tenantID, rateID)
}
