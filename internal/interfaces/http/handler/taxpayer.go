package handler

import (
	"context"

	"github.com/erp/invoicing/internal/domain/einvoice"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// TaxpayerService resolves fiscal codes against the public registry
type TaxpayerService interface {
	LookupCIF(ctx context.Context, cif string) (*einvoice.TaxpayerInfo, error)
}

// TaxpayerHandler handles fiscal code lookups
type TaxpayerHandler struct {
	BaseHandler
	taxpayers TaxpayerService
}

// NewTaxpayerHandler creates a TaxpayerHandler
func NewTaxpayerHandler(taxpayers TaxpayerService) *TaxpayerHandler {
	return &TaxpayerHandler{taxpayers: taxpayers}
}

type cifURI struct {
	CIF string `uri:"cif" binding:"required,cif"`
}

// Lookup handles GET /cif/:cif
func (h *TaxpayerHandler) Lookup(c *gin.Context) {
	var uri cifURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	info, err := h.taxpayers.LookupCIF(c.Request.Context(), uri.CIF)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
