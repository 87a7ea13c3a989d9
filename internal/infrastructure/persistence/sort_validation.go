package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to
// DESC
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks sortField against a whitelist of column names and
// falls back to defaultField. Only whitelisted names ever reach ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LoanSortFields are the loan columns a list may be sorted by
var LoanSortFields = map[string]bool{
	"created_at":        true,
	"disbursement_date": true,
	"due_date":          true,
	"loan_amount":       true,
	"balance":           true,
	"status":            true,
}

// MeetingSortFields are the meeting columns a list may be sorted by
var MeetingSortFields = map[string]bool{
	"created_at":        true,
	"meeting_date":      true,
	"meeting_number":    true,
	"processing_status": true,
}
