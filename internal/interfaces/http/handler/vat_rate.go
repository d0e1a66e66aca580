package handler

import (
	"context"

	billingapp "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VATRateService manages a tenant's VAT rates
type VATRateService interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]billingapp.VATRateResponse, error)
	SeedDefaults(ctx context.Context, tenantID uuid.UUID) error
	SetDefault(ctx context.Context, tenantID, rateID uuid.UUID) error
}

// VATRateHandler handles VAT rate endpoints
type VATRateHandler struct {
	BaseHandler
	rates VATRateService
}

// NewVATRateHandler creates a VATRateHandler
func NewVATRateHandler(rates VATRateService) *VATRateHandler {
	return &VATRateHandler{rates: rates}
}

// List handles GET /vat-rates
func (h *VATRateHandler) List(c *gin.Context) {
	rates, err := h.rates.List(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// Seed handles POST /vat-rates/seed and answers with the resulting rates
func (h *VATRateHandler) Seed(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	if err := h.rates.SeedDefaults(ctx, tenantID); err != nil {
		h.HandleError(c, err)
		return
	}
	rates, err := h.rates.List(ctx, tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// SetDefault handles PUT /vat-rates/:id/default
func (h *VATRateHandler) SetDefault(c *gin.Context) {
	rateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.rates.SetDefault(c.Request.Context(), middleware.GetTenantID(c), rateID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
