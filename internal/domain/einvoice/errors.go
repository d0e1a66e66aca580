package einvoice

import "github.com/erp/invoicing/internal/domain/shared"

var (
	// ErrNotConfigured is returned when a tenant has no certificate or CIF.
	ErrNotConfigured = shared.NewDomainError("EINVOICE_NOT_CONFIGURED", "E-invoicing is not configured for this company")
	// ErrSubmissionFailed wraps a gateway rejection of an upload.
	ErrSubmissionFailed = shared.NewDomainError("EINVOICE_SUBMISSION_FAILED", "E-invoice submission failed")
)
