package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/billing"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	ClientID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContractID       *uuid.UUID      `gorm:"type:uuid;index"`
	Type             string          `gorm:"type:varchar(20);not null"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	Series           string          `gorm:"type:varchar(20);not null"`
	Number           uint            `gorm:"not null;default:0"`
	FullNumber       string          `gorm:"type:varchar(40);not null;default:''"`
	IssueDate        time.Time       `gorm:"type:date;not null"`
	DueDate          *time.Time      `gorm:"type:date"`
	DeliveryDate     *time.Time      `gorm:"type:date"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VATTotal         decimal.Decimal `gorm:"column:vat_total;type:decimal(12,2);not null"`
	Total            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	PaymentMethod    string          `gorm:"type:varchar(20);not null"`
	PaymentReference string          `gorm:"type:varchar(100)"`
	PaidAt           *time.Time
	CancelledAt      *time.Time
	EInvoiceID       string             `gorm:"column:efactura_id;type:varchar(50)"`
	EInvoiceStatus   string             `gorm:"column:efactura_status;type:varchar(20);index"`
	PDFPath          string             `gorm:"column:pdf_path;type:varchar(500)"`
	Notes            string             `gorm:"type:text"`
	DeletedAt        gorm.DeletedAt     `gorm:"index"`
	Lines            []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		TenantAggregateRoot: m.root(),
		ClientID:            m.ClientID,
		ContractID:          m.ContractID,
		Type:                billing.DocumentType(m.Type),
		Status:              billing.InvoiceStatus(m.Status),
		Series:              m.Series,
		Number:              m.Number,
		FullNumber:          m.FullNumber,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		DeliveryDate:        m.DeliveryDate,
		Subtotal:            m.Subtotal,
		VATTotal:            m.VATTotal,
		Total:               m.Total,
		Currency:            valueobject.Currency(m.Currency),
		PaymentMethod:       billing.PaymentMethod(m.PaymentMethod),
		PaymentReference:    m.PaymentReference,
		PaidAt:              m.PaidAt,
		CancelledAt:         m.CancelledAt,
		EInvoiceID:          m.EInvoiceID,
		EInvoiceStatus:      billing.EInvoiceStatus(m.EInvoiceStatus),
		PDFPath:             m.PDFPath,
		Notes:               m.Notes,
		Lines:               make([]billing.InvoiceLine, len(m.Lines)),
	}
	for i := range m.Lines {
		inv.Lines[i] = m.Lines[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice.
// Lines are converted too; repositories write them separately.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
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
		EInvoiceID:       inv.EInvoiceID,
		EInvoiceStatus:   string(inv.EInvoiceStatus),
		PDFPath:          inv.PDFPath,
		Notes:            inv.Notes,
		Lines:            make([]InvoiceLineModel, len(inv.Lines)),
	}
	m.setRoot(inv.TenantAggregateRoot)
	for i := range inv.Lines {
		m.Lines[i] = InvoiceLineModelFromDomain(inv.ID, &inv.Lines[i])
	}
	return m
}

// InvoiceLineModel is the persistence model for an invoice line.
type InvoiceLineModel struct {
	BaseModel
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index"`
	Description  string          `gorm:"type:varchar(500);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VATRateID    *uuid.UUID      `gorm:"column:vat_rate_id;type:uuid"`
	VATAmount    decimal.Decimal `gorm:"column:vat_amount;type:decimal(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalWithVAT decimal.Decimal `gorm:"column:total_with_vat;type:decimal(12,2);not null"`
	SortOrder    int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() billing.InvoiceLine {
	return billing.InvoiceLine{
		ID:           m.ID,
		InvoiceID:    m.InvoiceID,
		ProductID:    m.ProductID,
		Description:  m.Description,
		Quantity:     m.Quantity,
		Unit:         m.Unit,
		UnitPrice:    m.UnitPrice,
		VATRateID:    m.VATRateID,
		VATAmount:    m.VATAmount,
		LineTotal:    m.LineTotal,
		TotalWithVAT: m.TotalWithVAT,
		SortOrder:    m.SortOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// InvoiceLineModelFromDomain creates a persistence model for a line of invoiceID.
func InvoiceLineModelFromDomain(invoiceID uuid.UUID, l *billing.InvoiceLine) InvoiceLineModel {
	m := InvoiceLineModel{
		InvoiceID:    invoiceID,
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
	m.ID = l.ID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
	return m
}

// InvoiceSequenceModel holds the last number issued per (tenant, series).
// Its row is the lock target of number allocation.
type InvoiceSequenceModel struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Series     string    `gorm:"type:varchar(20);primaryKey"`
	LastNumber uint      `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
