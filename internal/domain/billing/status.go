package billing

// InvoiceStatus is the lifecycle state of an invoice.
// Labels and colors belong to the presentation layer, not here.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Nothing re-enters draft and nothing leaves cancelled; a paid invoice may
// only be cancelled.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid:
		return target == InvoiceStatusCancelled
	case InvoiceStatusCancelled:
		return false
	}
	return false
}

// IsSettled reports whether the invoice no longer expects payment.
func (s InvoiceStatus) IsSettled() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// DocumentType is the kind of billing document.
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypeProforma DocumentType = "proforma"
	DocumentTypeReceipt  DocumentType = "receipt"
	DocumentTypeWaybill  DocumentType = "waybill"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeProforma, DocumentTypeReceipt, DocumentTypeWaybill:
		return true
	}
	return false
}

// SeriesPrefix returns the default series letter for the document type.
func (t DocumentType) SeriesPrefix() string {
	switch t {
	case DocumentTypeProforma:
		return "P"
	case DocumentTypeReceipt:
		return "C"
	case DocumentTypeWaybill:
		return "A"
	default:
		return "F"
	}
}

// PaymentMethod is how an invoice is expected to be settled.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOffset       PaymentMethod = "offset"
)

// DefaultPaymentMethod is used when a request omits one.
const DefaultPaymentMethod = PaymentMethodBankTransfer

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodOffset:
		return true
	}
	return false
}

// EInvoiceStatus is the submission state of an invoice at the national
// e-invoicing service.
type EInvoiceStatus string

const (
	EInvoiceStatusNone       EInvoiceStatus = ""
	EInvoiceStatusInProgress EInvoiceStatus = "in_progress"
	EInvoiceStatusAccepted   EInvoiceStatus = "accepted"
	EInvoiceStatusRejected   EInvoiceStatus = "rejected"
	EInvoiceStatusUnknown    EInvoiceStatus = "unknown"
	// EInvoiceStatusFailed marks a submission that exhausted its retries and
	// needs an operator.
	EInvoiceStatusFailed EInvoiceStatus = "failed"
)

// IsTerminal reports whether polling can stop.
func (s EInvoiceStatus) IsTerminal() bool {
	return s == EInvoiceStatusAccepted || s == EInvoiceStatusRejected
}

// IsValid checks if the e-invoice status is known
func (s EInvoiceStatus) IsValid() bool {
	switch s {
	case EInvoiceStatusNone, EInvoiceStatusInProgress, EInvoiceStatusAccepted,
		EInvoiceStatusRejected, EInvoiceStatusUnknown, EInvoiceStatusFailed:
		return true
	}
	return false
}
