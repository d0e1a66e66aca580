package billing

import (
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one line of a create or update request
type LineRequest struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Unit        string          `json:"unit" binding:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRateID   *uuid.UUID      `json:"vat_rate_id"`
}

// CreateInvoiceRequest represents a request to create a draft invoice
type CreateInvoiceRequest struct {
	ClientID      uuid.UUID     `json:"client_id" binding:"required"`
	ContractID    *uuid.UUID    `json:"contract_id"`
	Type          string        `json:"type" binding:"omitempty,oneof=invoice proforma receipt waybill"`
	Series        string        `json:"series" binding:"max=20"`
	IssueDate     *time.Time    `json:"issue_date"`
	DueDate       *time.Time    `json:"due_date"`
	DeliveryDate  *time.Time    `json:"delivery_date"`
	Currency      string        `json:"currency" binding:"omitempty,len=3"`
	PaymentMethod string        `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer card offset"`
	Notes         string        `json:"notes"`
	Lines         []LineRequest `json:"lines" binding:"dive"`
}

// UpdateInvoiceRequest changes header fields of a draft
type UpdateInvoiceRequest struct {
	DueDate          *time.Time `json:"due_date"`
	DeliveryDate     *time.Time `json:"delivery_date"`
	Currency         *string    `json:"currency" binding:"omitempty,len=3"`
	PaymentMethod    *string    `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer card offset"`
	PaymentReference *string    `json:"payment_reference" binding:"omitempty,max=100"`
	Notes            *string    `json:"notes"`
}

// UpdateLinesRequest replaces the whole line collection of a draft
type UpdateLinesRequest struct {
	Lines []LineRequest `json:"lines" binding:"dive"`
}

// MarkPaidRequest settles a sent invoice
type MarkPaidRequest struct {
	PaidAt           *time.Time `json:"paid_at"`
	PaymentReference string     `json:"payment_reference" binding:"max=100"`
}

// CancelInvoiceRequest voids an invoice. RestoreStock appends compensating
// adjustments for the stock exits recorded when the invoice was sent.
type CancelInvoiceRequest struct {
	RestoreStock bool `json:"restore_stock"`
}

// InvoiceListFilter represents filter options for invoice list
type InvoiceListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=draft sent paid cancelled"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Type     string `form:"type" binding:"omitempty,oneof=invoice proforma receipt waybill"`
	Series   string `form:"series" binding:"omitempty,max=32"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VATRateID    *uuid.UUID      `json:"vat_rate_id,omitempty"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	TotalWithVAT decimal.Decimal `json:"total_with_vat"`
	SortOrder    int             `json:"sort_order"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	TenantID         uuid.UUID             `json:"tenant_id"`
	ClientID         uuid.UUID             `json:"client_id"`
	ContractID       *uuid.UUID            `json:"contract_id,omitempty"`
	Type             string                `json:"type"`
	Status           string                `json:"status"`
	Series           string                `json:"series"`
	Number           uint                  `json:"number"`
	FullNumber       string                `json:"full_number"`
	IssueDate        time.Time             `json:"issue_date"`
	DueDate          *time.Time            `json:"due_date,omitempty"`
	DeliveryDate     *time.Time            `json:"delivery_date,omitempty"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	VATTotal         decimal.Decimal       `json:"vat_total"`
	Total            decimal.Decimal       `json:"total"`
	Currency         string                `json:"currency"`
	PaymentMethod    string                `json:"payment_method"`
	PaymentReference string                `json:"payment_reference,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	IsOverdue        bool                  `json:"is_overdue"`
	EInvoiceID       string                `json:"efactura_id,omitempty"`
	EInvoiceStatus   string                `json:"efactura_status,omitempty"`
	DocumentPath     string                `json:"pdf_path,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	Lines            []InvoiceLineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *billing.Invoice, now time.Time) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			Description:  l.Description,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			UnitPrice:    l.UnitPrice,
			VATRateID:    l.VATRateID,
			VATAmount:    l.VATAmount,
			LineTotal:    l.LineTotal,
			TotalWithVAT: l.TotalWithVAT,
			SortOrder:    l.SortOrder,
		}
	}
	return InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		ClientID:         inv.ClientID,
		ContractID:       inv.ContractID,
		Type:             string(inv.Type),
		Status:           string(inv.Status),
		Series:           inv.Series,
		Number:           inv.Number,
		FullNumber:       inv.FullNumber,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		DeliveryDate:     inv.DeliveryDate,
		Subtotal:         inv.Subtotal,
		VATTotal:         inv.VATTotal,
		Total:            inv.Total,
		Currency:         string(inv.Currency),
		PaymentMethod:    string(inv.PaymentMethod),
		PaymentReference: inv.PaymentReference,
		PaidAt:           inv.PaidAt,
		CancelledAt:      inv.CancelledAt,
		IsOverdue:        inv.IsOverdue(now),
		EInvoiceID:       inv.EInvoiceID,
		EInvoiceStatus:   string(inv.EInvoiceStatus),
		DocumentPath:     inv.PDFPath,
		Notes:            inv.Notes,
		Lines:            lines,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
}
