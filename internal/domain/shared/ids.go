package shared

import (
	"strings"

	"github.com/google/uuid"
)

// ParseID parses a required identifier supplied by a caller
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewValidationError(field, "must be a valid UUID")
	}
	return id, nil
}

// ParseOptionalID parses an identifier that may be left blank
func ParseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
