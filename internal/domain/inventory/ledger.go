package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementStore persists a movement and applies its signed quantity to the
// product's cached stock as a single atomic unit. The stock update must be an
// in-place increment, never a read-modify-write, so concurrent appends for
// the same product cannot lose updates. It returns shared.ErrNotFound when
// the product does not exist for the tenant.
type MovementStore interface {
	Append(ctx context.Context, movement *StockMovement) error
}

// ExitLine is one product quantity leaving stock because of an invoice.
type ExitLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Ledger is the only writer of stock. Every method appends movements through
// the store; running it over a transaction-bound store makes the movements
// part of the caller's transaction.
type Ledger struct {
	store MovementStore
}

// NewLedger creates a ledger over a store.
func NewLedger(store MovementStore) *Ledger {
	return &Ledger{store: store}
}

// RecordEntry appends a positive movement for received goods.
func (l *Ledger) RecordEntry(ctx context.Context, tenantID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, notes string) (*StockMovement, error) {
	movement, err := NewEntryMovement(tenantID, productID, quantity, unitPrice, notes)
	if err != nil {
		return nil, err
	}
	if err := l.store.Append(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordAdjustment appends a signed correction.
func (l *Ledger) RecordAdjustment(ctx context.Context, tenantID, productID uuid.UUID, quantity decimal.Decimal, notes string) (*StockMovement, error) {
	movement, err := NewAdjustmentMovement(tenantID, productID, quantity, notes)
	if err != nil {
		return nil, err
	}
	if err := l.store.Append(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordExitForInvoice appends one exit per line. Stock may go negative;
// invoicing is never blocked by the ledger's view of the warehouse.
func (l *Ledger) RecordExitForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, fullNumber string, lines []ExitLine) ([]StockMovement, error) {
	movements := make([]StockMovement, 0, len(lines))
	note := InvoiceExitNote(fullNumber)
	for _, line := range lines {
		movement, err := NewExitMovement(tenantID, line.ProductID, line.Quantity, line.UnitPrice, note)
		if err != nil {
			return nil, err
		}
		movement.ForInvoice(invoiceID)
		if err := l.store.Append(ctx, movement); err != nil {
			return nil, err
		}
		movements = append(movements, *movement)
	}
	return movements, nil
}

// ReverseInvoiceExits appends a compensating adjustment for every exit
// recorded against an invoice. Movements that are not exits are ignored.
func (l *Ledger) ReverseInvoiceExits(ctx context.Context, tenantID, invoiceID uuid.UUID, fullNumber string, exits []StockMovement) ([]StockMovement, error) {
	movements := make([]StockMovement, 0, len(exits))
	note := StornoNote(fullNumber)
	for _, exit := range exits {
		if exit.Type != MovementTypeExit {
			continue
		}
		movement, err := NewAdjustmentMovement(tenantID, exit.ProductID, exit.Quantity.Neg(), note)
		if err != nil {
			return nil, err
		}
		movement.ForInvoice(invoiceID)
		if err := l.store.Append(ctx, movement); err != nil {
			return nil, err
		}
		movements = append(movements, *movement)
	}
	return movements, nil
}
