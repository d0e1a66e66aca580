package handler

import (
	"context"

	billingapp "github.com/erp/invoicing/internal/application/billing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceService is the invoice lifecycle the handler drives
type InvoiceService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req billingapp.CreateInvoiceRequest) (*billingapp.InvoiceResponse, error)
	CreateFromContract(ctx context.Context, tenantID, contractID uuid.UUID) (*billingapp.InvoiceResponse, error)
	Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error)
	Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.UpdateInvoiceRequest) (*billingapp.InvoiceResponse, error)
	UpdateLines(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.UpdateLinesRequest) (*billingapp.InvoiceResponse, error)
	Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error
	EnsureNumber(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error)
	Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error)
	MarkPaid(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.MarkPaidRequest) (*billingapp.InvoiceResponse, error)
	Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req billingapp.CancelInvoiceRequest) (*billingapp.InvoiceResponse, error)
	RegenerateDocument(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// EInvoiceRequester queues invoices for upload to the e-invoice gateway
type EInvoiceRequester interface {
	Request(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices    InvoiceService
	submissions EInvoiceRequester
}

// NewInvoiceHandler creates an InvoiceHandler. submissions may be nil when
// the e-invoice gateway is not configured.
func NewInvoiceHandler(invoices InvoiceService, submissions EInvoiceRequester) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, submissions: submissions}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.Create(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// CreateFromContract handles POST /contracts/:id/invoice
func (h *InvoiceHandler) CreateFromContract(c *gin.Context) {
	contractID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoices.CreateFromContract(c.Request.Context(), middleware.GetTenantID(c), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoices.Get(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billingapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	invoices, total, err := h.invoices.List(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.Update(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// UpdateLines handles PUT /invoices/:id/lines
func (h *InvoiceHandler) UpdateLines(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.UpdateLines(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.invoices.Delete(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AssignNumber handles POST /invoices/:id/number
func (h *InvoiceHandler) AssignNumber(c *gin.Context) {
	h.transition(c, h.invoices.EnsureNumber)
}

// Send handles POST /invoices/:id/send
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.transition(c, h.invoices.Send)
}

// MarkPaid handles POST /invoices/:id/pay
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.MarkPaidRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.MarkPaid(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Cancel handles POST /invoices/:id/cancel. The body is optional.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.CancelInvoiceRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoices.Cancel(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// SubmitEInvoice handles POST /invoices/:id/efactura
func (h *InvoiceHandler) SubmitEInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if h.submissions == nil {
		h.HandleError(c, shared.NewDomainError("EINVOICE_NOT_CONFIGURED", "E-invoice submission is not configured"))
		return
	}

	if err := h.submissions.Request(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, gin.H{"invoice_id": id, "status": "queued"})
}

// RegenerateDocument handles POST /invoices/:id/document
func (h *InvoiceHandler) RegenerateDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.invoices.RegenerateDocument(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, gin.H{"invoice_id": id, "status": "queued"})
}

func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*billingapp.InvoiceResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := fn(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}
