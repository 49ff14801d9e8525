// Package error defines domain-specific errors for the insights service.
package error

import "errors"

// Analytics domain errors.
var (
	// ErrMissingMonths is returned when no month is selected.
	ErrMissingMonths = errors.New("at least one month is required")

	// ErrInvalidMonthFormat is returned when a month is not formatted as YYYY-MM.
	ErrInvalidMonthFormat = errors.New("invalid month format, expected YYYY-MM")

	// ErrInvalidAccountScope is returned when the account scope cannot be parsed.
	ErrInvalidAccountScope = errors.New("invalid account scope")

	// ErrInvalidIdentifier is returned when an ID is not a valid UUID.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrSingleMonthRequired is returned when an operation needs exactly one month.
	ErrSingleMonthRequired = errors.New("exactly one month is required")

	// ErrInvalidMetric is returned when the cumulative metric is unknown.
	ErrInvalidMetric = errors.New("invalid metric, expected spend, income or net")

	// ErrAccountNotFound is returned when the scoped account is not in the ledger.
	ErrAccountNotFound = errors.New("account not found")

	// ErrSessionNotFound is returned when a recompute session does not exist.
	ErrSessionNotFound = errors.New("recompute session not found")

	// ErrSessionClosed is returned when a closed recompute session is asked to compute.
	ErrSessionClosed = errors.New("recompute session closed")

	// ErrLedgerUnavailable is returned when the ledger snapshot cannot be loaded.
	ErrLedgerUnavailable = errors.New("ledger snapshot unavailable")
)

// AnalyticsErrorCode defines error codes for analytics errors.
// Format: ANL-XXYYYY where XX is category and YYYY is specific error.
type AnalyticsErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeMissingMonths        AnalyticsErrorCode = "ANL-010001"
	ErrCodeInvalidMonthFormat   AnalyticsErrorCode = "ANL-010002"
	ErrCodeInvalidAccountScope  AnalyticsErrorCode = "ANL-010003"
	ErrCodeInvalidIdentifier    AnalyticsErrorCode = "ANL-010004"
	ErrCodeSingleMonthRequired  AnalyticsErrorCode = "ANL-010005"
	ErrCodeMissingUser          AnalyticsErrorCode = "ANL-010006"
	ErrCodeRecomputeRateLimited AnalyticsErrorCode = "ANL-010007"
	ErrCodeInvalidMetric        AnalyticsErrorCode = "ANL-010008"
	ErrCodeInvalidRequest       AnalyticsErrorCode = "ANL-010009"

	// Not found errors (04XXXX)
	ErrCodeAccountNotFound AnalyticsErrorCode = "ANL-040001"
	ErrCodeSessionNotFound AnalyticsErrorCode = "ANL-040002"

	// Conflict errors (09XXXX)
	ErrCodeSessionClosed AnalyticsErrorCode = "ANL-090001"

	// Internal errors (99XXXX)
	ErrCodeLedgerUnavailable      AnalyticsErrorCode = "ANL-990001"
	ErrCodeAnalyticsInternalError AnalyticsErrorCode = "ANL-990002"
)

// AnalyticsError represents an analytics error with code and message.
type AnalyticsError struct {
	Code    AnalyticsErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AnalyticsError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AnalyticsError) Unwrap() error {
	return e.Err
}

// NewAnalyticsError creates a new AnalyticsError with the given code and message.
func NewAnalyticsError(code AnalyticsErrorCode, message string, err error) *AnalyticsError {
	return &AnalyticsError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
