package billing

import (
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultUnit is the unit label used when a line does not name one.
const DefaultUnit = "buc"

// LineDraft carries the user-editable fields of an invoice line.
type LineDraft struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	VATRateID   *uuid.UUID
}

// InvoiceLine is one billable line. It is owned by its Invoice and is
// replaced together with the invoice's line collection.
type InvoiceLine struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	ProductID    *uuid.UUID
	Description  string
	Quantity     decimal.Decimal // 3 decimal places
	Unit         string
	UnitPrice    decimal.Decimal // 2 decimal places
	VATRateID    *uuid.UUID
	VATAmount    decimal.Decimal
	LineTotal    decimal.Decimal
	TotalWithVAT decimal.Decimal
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInvoiceLine validates a draft and builds a line. Computed amounts stay
// zero until the owning invoice recalculates.
func NewInvoiceLine(draft LineDraft) (*InvoiceLine, error) {
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot exceed 500 characters")
	}
	if !draft.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if draft.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if draft.VATRateID == nil || *draft.VATRateID == uuid.Nil {
		return nil, shared.ErrVATRateRequired
	}
	unit := strings.TrimSpace(draft.Unit)
	if unit == "" {
		unit = DefaultUnit
	}

	now := time.Now()
	return &InvoiceLine{
		ID:          uuid.New(),
		ProductID:   draft.ProductID,
		Description: description,
		Quantity:    valueobject.RoundQuantity(draft.Quantity),
		Unit:        unit,
		UnitPrice:   valueobject.RoundMoney(draft.UnitPrice),
		VATRateID:   draft.VATRateID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasProduct reports whether the line moves stock.
func (l *InvoiceLine) HasProduct() bool {
	return l.ProductID != nil && *l.ProductID != uuid.Nil
}

func (l *InvoiceLine) apply(amounts LineAmounts) {
	l.LineTotal = amounts.LineTotal
	l.VATAmount = amounts.VATAmount
	l.TotalWithVAT = amounts.TotalWithVAT
}
