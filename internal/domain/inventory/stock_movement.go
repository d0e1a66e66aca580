package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the kind of stock change.
type MovementType string

const (
	MovementTypeEntry      MovementType = "entry"
	MovementTypeExit       MovementType = "exit"
	MovementTypeAdjustment MovementType = "adjustment"
)

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// StockMovement is an immutable ledger row. Quantity is signed: entries are
// positive, exits negative and adjustments either. A product's stock equals
// the sum of its movements' quantities.
type StockMovement struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ProductID uuid.UUID
	InvoiceID *uuid.UUID
	Type      MovementType
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Notes     string
	CreatedAt time.Time
}

func newMovement(tenantID, productID uuid.UUID, movementType MovementType, quantity, unitPrice decimal.Decimal, notes string) (*StockMovement, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &StockMovement{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProductID: productID,
		Type:      movementType,
		Quantity:  valueobject.RoundQuantity(quantity),
		UnitPrice: valueobject.RoundMoney(unitPrice),
		Notes:     strings.TrimSpace(notes),
		CreatedAt: time.Now(),
	}, nil
}

// NewEntryMovement records goods received. quantity must be positive.
func NewEntryMovement(tenantID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, notes string) (*StockMovement, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Entry quantity must be positive")
	}
	return newMovement(tenantID, productID, MovementTypeEntry, quantity, unitPrice, notes)
}

// NewExitMovement records goods leaving stock. quantity is the positive
// amount removed; it is stored negated.
func NewExitMovement(tenantID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, notes string) (*StockMovement, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Exit quantity must be positive")
	}
	return newMovement(tenantID, productID, MovementTypeExit, quantity.Neg(), unitPrice, notes)
}

// NewAdjustmentMovement records a signed correction.
func NewAdjustmentMovement(tenantID, productID uuid.UUID, quantity decimal.Decimal, notes string) (*StockMovement, error) {
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	return newMovement(tenantID, productID, MovementTypeAdjustment, quantity, decimal.Zero, notes)
}

// ForInvoice links the movement to the invoice that caused it.
func (m *StockMovement) ForInvoice(invoiceID uuid.UUID) *StockMovement {
	m.InvoiceID = &invoiceID
	return m
}

// InvoiceExitNote is the note written on movements issued for an invoice.
func InvoiceExitNote(fullNumber string) string {
	return fmt.Sprintf("Factură %s", fullNumber)
}

// StornoNote is the note written on adjustments that reverse an invoice.
func StornoNote(fullNumber string) string {
	return fmt.Sprintf("Storno %s", fullNumber)
}
