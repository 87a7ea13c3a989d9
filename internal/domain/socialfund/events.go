package socialfund

import (
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventTypeSocialFundWithdrawn = "SocialFundWithdrawn"

// WithdrawnEvent is raised after a withdrawal is posted
type WithdrawnEvent struct {
	shared.BaseDomainEvent
	CycleID   *uuid.UUID      `json:"cycle_id,omitempty"`
	MemberID  *uuid.UUID      `json:"member_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining_balance"`
}

// NewWithdrawnEvent creates a WithdrawnEvent
func NewWithdrawnEvent(tx *Transaction, remaining decimal.Decimal) *WithdrawnEvent {
	return &WithdrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSocialFundWithdrawn, "SocialFundTransaction", tx.ID, tx.GroupID),
		CycleID:         tx.CycleID,
		MemberID:        tx.MemberID,
		Amount:          tx.Magnitude(),
		Remaining:       remaining,
	}
}
