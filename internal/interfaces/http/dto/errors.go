package dto

import "net/http"

// Error codes returned to clients. Domain codes are passed through verbatim
// so the mobile app can match on them; the rest are transport-level codes
// raised by middleware and request binding.

// General error codes
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeProcessingFailed = "PROCESSING_FAILED"
)

// Request error codes
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeInvalidJSON = "INVALID_JSON"
	ErrCodeValidation  = "VALIDATION_FAILED"
	ErrCodeInvalidID   = "INVALID_ID"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeGroupNotFound       = "GROUP_NOT_FOUND"
	ErrCodeCycleNotFound       = "CYCLE_NOT_FOUND"
	ErrCodeMemberNotFound      = "MEMBER_NOT_FOUND"
	ErrCodeMeetingNotFound     = "MEETING_NOT_FOUND"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeShareoutNotFound    = "SHAREOUT_NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	ErrCodeShareoutExists      = "SHAREOUT_EXISTS"
	ErrCodeIdempotencyReplay   = "IDEMPOTENCY_KEY_REUSED"
)

// Business rule error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeCycleState          = "CYCLE_STATE"
	ErrCodeGroupMismatch       = "GROUP_MISMATCH"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeAmountExceedsLoan   = "AMOUNT_EXCEEDS_BALANCE"
	ErrCodeLoanState           = "LOAN_STATE"
	ErrCodeMeetingState        = "MEETING_STATE"
	ErrCodeShareoutState       = "SHAREOUT_STATE"
	ErrCodeUnbalancedPair      = "UNBALANCED_PAIR"
	ErrCodeEntryReversed       = "ENTRY_REVERSED"
	ErrCodeShareoutStale       = "SHAREOUT_STALE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeProcessingFailed: http.StatusInternalServerError,

	// Malformed requests -> 400, well-formed but invalid -> 422
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeInvalidID:   http.StatusBadRequest,
	ErrCodeValidation:  http.StatusUnprocessableEntity,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeGroupNotFound:       http.StatusNotFound,
	ErrCodeCycleNotFound:       http.StatusNotFound,
	ErrCodeMemberNotFound:      http.StatusNotFound,
	ErrCodeMeetingNotFound:     http.StatusNotFound,
	ErrCodeLoanNotFound:        http.StatusNotFound,
	ErrCodeShareoutNotFound:    http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateSubmission: http.StatusConflict,
	ErrCodeShareoutExists:      http.StatusConflict,
	ErrCodeIdempotencyReplay:   http.StatusConflict,
	ErrCodeEntryReversed:       http.StatusConflict,
	ErrCodeShareoutStale:       http.StatusConflict,

	ErrCodeInvalidInput:        http.StatusUnprocessableEntity,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeCycleState:          http.StatusUnprocessableEntity,
	ErrCodeGroupMismatch:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeAmountExceedsLoan:   http.StatusUnprocessableEntity,
	ErrCodeLoanState:           http.StatusUnprocessableEntity,
	ErrCodeMeetingState:        http.StatusUnprocessableEntity,
	ErrCodeShareoutState:       http.StatusUnprocessableEntity,
	ErrCodeUnbalancedPair:      http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
