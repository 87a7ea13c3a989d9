package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeProcessingFailed, http.StatusInternalServerError},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeLoanNotFound, http.StatusNotFound},
		{ErrCodeDuplicateSubmission, http.StatusConflict},
		{ErrCodeShareoutExists, http.StatusConflict},
		{ErrCodeShareoutState, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientBalance, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

// Every domain error the services return must have an explicit status.
func TestDomainErrorsAreMapped(t *testing.T) {
	domainErrors := []*shared.DomainError{
		shared.ErrNotFound,
		shared.ErrAlreadyExists,
		shared.ErrInvalidInput,
		shared.ErrConcurrencyConflict,
		shared.ErrUnauthorized,
		shared.ErrForbidden,
		shared.ErrInvalidState,
		shared.ErrValidation,
		shared.ErrDuplicateSubmission,
		shared.ErrCycleNotFound,
		shared.ErrGroupNotFound,
		shared.ErrMemberNotFound,
		shared.ErrCycleState,
		shared.ErrGroupMismatch,
		shared.ErrInsufficientBalance,
		shared.ErrAmountExceedsBalance,
		shared.ErrLoanNotFound,
		shared.ErrLoanState,
		shared.ErrMeetingNotFound,
		shared.ErrMeetingState,
		shared.ErrShareoutNotFound,
		shared.ErrShareoutState,
		shared.ErrShareoutExists,
		shared.ErrUnbalancedPair,
		shared.ErrProcessingFailed,
	}

	for _, e := range domainErrors {
		t.Run(e.Code, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[e.Code]
			assert.True(t, ok, "%s has no HTTP status", e.Code)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeLoanNotFound, "Loan not found", "req-1")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoanNotFound, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"LOAN_NOT_FOUND","message":"Loan not found","request_id":"req-1"}}`, string(raw))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "amount", Message: "must be greater than 0"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "amount", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages)
	}
}
