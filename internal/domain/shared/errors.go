package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is keeps working for copies carrying details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying the given details
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Details: merged}
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...), Details: e.Details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Ledger and settlement errors
var (
	ErrValidation           = NewDomainError("VALIDATION_FAILED", "Request validation failed")
	ErrDuplicateSubmission  = NewDomainError("DUPLICATE_SUBMISSION", "Meeting with this local_id was already submitted")
	ErrCycleNotFound        = NewDomainError("CYCLE_NOT_FOUND", "Cycle not found")
	ErrGroupNotFound        = NewDomainError("GROUP_NOT_FOUND", "Group not found")
	ErrMemberNotFound       = NewDomainError("MEMBER_NOT_FOUND", "Member not found")
	ErrCycleState           = NewDomainError("CYCLE_STATE", "Cycle is not open for this operation")
	ErrGroupMismatch        = NewDomainError("GROUP_MISMATCH", "Group does not match the cycle's group")
	ErrInsufficientBalance  = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance available")
	ErrAmountExceedsBalance = NewDomainError("AMOUNT_EXCEEDS_BALANCE", "Amount exceeds the outstanding loan balance")
	ErrLoanNotFound         = NewDomainError("LOAN_NOT_FOUND", "Loan not found")
	ErrLoanState            = NewDomainError("LOAN_STATE", "Operation not allowed for the loan's status")
	ErrMeetingNotFound      = NewDomainError("MEETING_NOT_FOUND", "Meeting not found")
	ErrMeetingState         = NewDomainError("MEETING_STATE", "Meeting cannot be processed in its current status")
	ErrShareoutNotFound     = NewDomainError("SHAREOUT_NOT_FOUND", "Shareout not found")
	ErrShareoutState        = NewDomainError("SHAREOUT_STATE", "Shareout transition not allowed")
	ErrShareoutExists       = NewDomainError("SHAREOUT_EXISTS", "Cycle already has a shareout in progress")
	ErrShareoutStale        = NewDomainError("SHAREOUT_STALE", "Cycle figures changed since the shareout was calculated")
	ErrUnbalancedPair       = NewDomainError("UNBALANCED_PAIR", "Linked ledger entries must net to zero")
	ErrEntryReversed        = NewDomainError("ENTRY_REVERSED", "Ledger entry has already been reversed")
	ErrProcessingFailed     = NewDomainError("PROCESSING_FAILED", "Meeting processing failed and was rolled back")
)

// NewValidationError creates a VALIDATION_FAILED error for a single field
func NewValidationError(field, message string) *DomainError {
	return ErrValidation.WithMessage("%s: %s", field, message).WithDetails(map[string]any{"field": field})
}
