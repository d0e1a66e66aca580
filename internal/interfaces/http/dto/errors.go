package dto

import (
	"net/http"
	"strings"
)

// Error codes returned by the API. Format: ERR_<CATEGORY>_<DESCRIPTION>.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeTenantRequired  = "ERR_TENANT_REQUIRED"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists   = "ERR_ALREADY_EXISTS"
	ErrCodeConflict        = "ERR_CONFLICT"
	ErrCodeConcurrency     = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState    = "ERR_INVALID_STATE"
	ErrCodeBusinessRule    = "ERR_BUSINESS_RULE"
	ErrCodeExternalService = "ERR_EXTERNAL_SERVICE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:         http.StatusInternalServerError,
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeTenantRequired:  http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeConcurrency:     http.StatusConflict,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodeExternalService: http.StatusBadGateway,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps domain error codes to API codes.
var domainErrorCodes = map[string]string{
	"NOT_FOUND":                  ErrCodeNotFound,
	"LINE_NOT_FOUND":             ErrCodeNotFound,
	"VAT_RATE_NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":             ErrCodeAlreadyExists,
	"ALREADY_QUEUED":             ErrCodeConflict,
	"ALREADY_SUBMITTED":          ErrCodeConflict,
	"CONCURRENT_MODIFICATION":    ErrCodeConcurrency,
	"INVALID_STATE":              ErrCodeInvalidState,
	"INVALID_TRANSITION":         ErrCodeInvalidState,
	"NUMBER_NOT_ASSIGNED":        ErrCodeInvalidState,
	"RECALCULATION_PENDING":      ErrCodeInvalidState,
	"FULL_NUMBER_ASSIGNED":       ErrCodeInvalidState,
	"VAT_RATE_REQUIRED":          ErrCodeBusinessRule,
	"INACTIVE_VAT_RATE":          ErrCodeBusinessRule,
	"EINVOICE_NOT_CONFIGURED":    ErrCodeBusinessRule,
	"EINVOICE_SUBMISSION_FAILED": ErrCodeExternalService,
	"JOBS_UNAVAILABLE":           ErrCodeUnavailable,
	"VALIDATION_ERROR":           ErrCodeValidation,
	"BAD_REQUEST":                ErrCodeBadRequest,
	"INTERNAL_ERROR":             ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to an API code. Codes in
// the ERR_ format pass through, as do unknown ones; INVALID_* codes become
// ERR_INVALID_INPUT.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodes[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	return code
}
