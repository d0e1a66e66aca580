package billing

import (
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTermDays is the gap between issue and due date.
const DefaultPaymentTermDays = 30

// Invoice is the billing document aggregate root.
//
// Totals are always derived from the lines by Recalculate and are never
// edited directly. FullNumber is assigned once and never changes.
type Invoice struct {
	shared.TenantAggregateRoot
	ClientID         uuid.UUID
	ContractID       *uuid.UUID
	Type             DocumentType
	Status           InvoiceStatus
	Series           string
	Number           uint
	FullNumber       string
	IssueDate        time.Time
	DueDate          *time.Time
	DeliveryDate     *time.Time
	Subtotal         decimal.Decimal
	VATTotal         decimal.Decimal
	Total            decimal.Decimal
	Currency         valueobject.Currency
	PaymentMethod    PaymentMethod
	PaymentReference string
	PaidAt           *time.Time
	CancelledAt      *time.Time
	EInvoiceID       string
	EInvoiceStatus   EInvoiceStatus
	PDFPath          string
	Notes            string
	Lines            []InvoiceLine

	linesDirty bool
}

// NewInvoice creates a draft invoice.
func NewInvoice(tenantID, clientID uuid.UUID, docType DocumentType, series string, issueDate time.Time) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", fmt.Sprintf("Unknown document type %q", docType))
	}
	if series == "" {
		return nil, shared.NewDomainError("INVALID_SERIES", "Series cannot be empty")
	}
	if len(series) > 20 {
		return nil, shared.NewDomainError("INVALID_SERIES", "Series cannot exceed 20 characters")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	issueDate = truncateToDate(issueDate)
	due := issueDate.AddDate(0, 0, DefaultPaymentTermDays)

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		Type:                docType,
		Status:              InvoiceStatusDraft,
		Series:              series,
		IssueDate:           issueDate,
		DueDate:             &due,
		Subtotal:            decimal.Zero,
		VATTotal:            decimal.Zero,
		Total:               decimal.Zero,
		Currency:            valueobject.DefaultCurrency,
		PaymentMethod:       DefaultPaymentMethod,
		Lines:               make([]InvoiceLine, 0),
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// IsDraft returns true if the invoice is still editable
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// SetContract links the invoice to the contract that spawned it.
func (i *Invoice) SetContract(contractID uuid.UUID) error {
	if !i.IsDraft() {
		return i.notDraftError("link a contract to")
	}
	i.ContractID = &contractID
	i.Touch()
	return nil
}

// SetCurrency changes the document currency of a draft.
func (i *Invoice) SetCurrency(currency valueobject.Currency) error {
	if !i.IsDraft() {
		return i.notDraftError("change the currency of")
	}
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Invalid currency code %q", currency))
	}
	i.Currency = currency
	i.Touch()
	return nil
}

// SetDueDate sets the payment due date; it cannot precede the issue date.
func (i *Invoice) SetDueDate(due time.Time) error {
	if !i.IsDraft() {
		return i.notDraftError("change the due date of")
	}
	due = truncateToDate(due)
	if due.Before(i.IssueDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	i.DueDate = &due
	i.Touch()
	return nil
}

// SetDeliveryDate sets the goods/services delivery date.
func (i *Invoice) SetDeliveryDate(delivery time.Time) error {
	if !i.IsDraft() {
		return i.notDraftError("change the delivery date of")
	}
	delivery = truncateToDate(delivery)
	i.DeliveryDate = &delivery
	i.Touch()
	return nil
}

// SetPaymentMethod sets the expected payment method.
func (i *Invoice) SetPaymentMethod(method PaymentMethod) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	if i.Status == InvoiceStatusCancelled {
		return i.notDraftError("change the payment method of")
	}
	i.PaymentMethod = method
	i.Touch()
	return nil
}

// SetPaymentReference records the bank or receipt reference of the payment.
func (i *Invoice) SetPaymentReference(ref string) {
	i.PaymentReference = ref
	i.Touch()
}

// SetNotes sets free-text notes.
func (i *Invoice) SetNotes(notes string) {
	i.Notes = notes
	i.Touch()
}

// ReplaceLines swaps the whole line collection. Totals are stale until
// Recalculate runs.
func (i *Invoice) ReplaceLines(lines []InvoiceLine) error {
	if !i.IsDraft() {
		return i.notDraftError("edit lines of")
	}
	replaced := make([]InvoiceLine, len(lines))
	for idx, line := range lines {
		line.InvoiceID = i.ID
		line.SortOrder = idx
		replaced[idx] = line
	}
	i.Lines = replaced
	i.linesDirty = true
	i.Touch()
	return nil
}

// AddLine appends a line at the end of the collection.
func (i *Invoice) AddLine(line InvoiceLine) error {
	if !i.IsDraft() {
		return i.notDraftError("edit lines of")
	}
	line.InvoiceID = i.ID
	line.SortOrder = len(i.Lines)
	i.Lines = append(i.Lines, line)
	i.linesDirty = true
	i.Touch()
	return nil
}

// RemoveLine deletes a line by id and renumbers the rest.
func (i *Invoice) RemoveLine(lineID uuid.UUID) error {
	if !i.IsDraft() {
		return i.notDraftError("edit lines of")
	}
	kept := make([]InvoiceLine, 0, len(i.Lines))
	found := false
	for _, line := range i.Lines {
		if line.ID == lineID {
			found = true
			continue
		}
		line.SortOrder = len(kept)
		kept = append(kept, line)
	}
	if !found {
		return shared.NewDomainError("LINE_NOT_FOUND", "Invoice line not found")
	}
	i.Lines = kept
	i.linesDirty = true
	i.Touch()
	return nil
}

// CalculationResult reports data-integrity findings of a recalculation.
type CalculationResult struct {
	// MissingVATRate holds the sort order of lines whose VAT rate could not
	// be resolved; they were computed at 0%.
	MissingVATRate []int
}

// HasAnomalies reports whether any line was defaulted.
func (r CalculationResult) HasAnomalies() bool {
	return len(r.MissingVATRate) > 0
}

// Recalculate recomputes every line's amounts and then the invoice totals.
// rates maps VAT rate ids to their percentage; a line whose rate is absent
// from the map is computed at 0% and reported in the result.
// Calling it twice with the same inputs yields the same totals.
func (i *Invoice) Recalculate(rates map[uuid.UUID]decimal.Decimal) CalculationResult {
	var result CalculationResult
	amounts := make([]LineAmounts, len(i.Lines))

	for idx := range i.Lines {
		line := &i.Lines[idx]
		percent := decimal.Zero
		if line.VATRateID != nil {
			if p, ok := rates[*line.VATRateID]; ok {
				percent = p
			} else {
				result.MissingVATRate = append(result.MissingVATRate, line.SortOrder)
			}
		} else {
			result.MissingVATRate = append(result.MissingVATRate, line.SortOrder)
		}
		amounts[idx] = CalculateLine(LineInput{
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			VATPercent: percent,
		})
		line.apply(amounts[idx])
	}

	totals := SumLines(amounts)
	i.Subtotal = totals.Subtotal
	i.VATTotal = totals.VATTotal
	i.Total = totals.Total
	i.linesDirty = false
	return result
}

// NeedsNumber reports whether the sequential number is still unassigned.
func (i *Invoice) NeedsNumber() bool {
	return i.FullNumber == ""
}

// AssignNumber sets the sequential number and composes the full number.
// It fails if a number was already assigned.
func (i *Invoice) AssignNumber(number uint) error {
	if !i.NeedsNumber() {
		return shared.ErrFullNumberAssigned
	}
	if number == 0 {
		return shared.NewDomainError("INVALID_NUMBER", "Invoice number must be positive")
	}
	i.Number = number
	i.FullNumber = FormatFullNumber(i.Series, number)
	i.Touch()
	return nil
}

// Send finalizes a draft: draft -> sent.
func (i *Invoice) Send() error {
	if !i.Status.CanTransitionTo(InvoiceStatusSent) {
		return i.transitionError(InvoiceStatusSent)
	}
	if i.NeedsNumber() {
		return shared.NewDomainError("NUMBER_NOT_ASSIGNED", "Invoice must have a number before it is sent")
	}
	if i.linesDirty {
		return shared.NewDomainError("RECALCULATION_PENDING", "Invoice totals must be recalculated before it is sent")
	}

	i.Status = InvoiceStatusSent
	i.Touch()
	i.AddDomainEvent(NewInvoiceSentEvent(i))
	return nil
}

// MarkPaid settles a sent invoice: sent -> paid.
func (i *Invoice) MarkPaid(at time.Time) error {
	if !i.Status.CanTransitionTo(InvoiceStatusPaid) {
		return i.transitionError(InvoiceStatusPaid)
	}
	if at.IsZero() {
		at = time.Now()
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &at
	i.Touch()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return nil
}

// Cancel voids the invoice from any non-cancelled state and returns the
// status it had before. Stock and documents are left untouched.
func (i *Invoice) Cancel() (InvoiceStatus, error) {
	previous := i.Status
	if !i.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return previous, i.transitionError(InvoiceStatusCancelled)
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.Touch()
	i.AddDomainEvent(NewInvoiceCancelledEvent(i, previous))
	return previous, nil
}

// IsOverdue reports whether the due date has passed and the invoice is
// still expected to be paid.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil || i.Status.IsSettled() {
		return false
	}
	return i.DueDate.Before(truncateToDate(now))
}

// StockLines returns the lines that reference a product.
func (i *Invoice) StockLines() []InvoiceLine {
	out := make([]InvoiceLine, 0, len(i.Lines))
	for _, l := range i.Lines {
		if l.HasProduct() {
			out = append(out, l)
		}
	}
	return out
}

// CanSubmitEInvoice reports whether the invoice may be sent to the
// e-invoicing service.
func (i *Invoice) CanSubmitEInvoice() error {
	if i.Status != InvoiceStatusSent && i.Status != InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit e-invoice for invoice in %s status", i.Status))
	}
	if i.EInvoiceID != "" && i.EInvoiceStatus != EInvoiceStatusFailed {
		return shared.NewDomainError("ALREADY_SUBMITTED", "E-invoice was already submitted")
	}
	return nil
}

// RecordEInvoiceSubmission stores the submission id returned by the gateway.
func (i *Invoice) RecordEInvoiceSubmission(submissionID string) {
	i.EInvoiceID = submissionID
	i.EInvoiceStatus = EInvoiceStatusInProgress
	i.Touch()
}

// MarkEInvoiceFailed flags a submission that needs manual intervention.
func (i *Invoice) MarkEInvoiceFailed() {
	i.EInvoiceStatus = EInvoiceStatusFailed
	i.Touch()
}

func (i *Invoice) notDraftError(action string) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot %s invoice in %s status", action, i.Status))
}

func (i *Invoice) transitionError(target InvoiceStatus) error {
	return shared.NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("Cannot move invoice from %s to %s", i.Status, target))
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
