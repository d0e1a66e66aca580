package shared

// DomainError is a business rule violation. Code is stable and mapped to an
// HTTP status by the API layer; Message is shown to the caller.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewDomainError creates a DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Is matches any DomainError with the same code, so a specific message
// still satisfies errors.Is against the sentinel below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConcurrencyConflict = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Status transition not allowed")
	ErrVATRateRequired     = NewDomainError("VAT_RATE_REQUIRED", "Invoice line requires a VAT rate")
	ErrFullNumberAssigned  = NewDomainError("FULL_NUMBER_ASSIGNED", "Invoice number already assigned")
)
