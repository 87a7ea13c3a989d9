package shareout

import (
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeShareoutInitiated  = "ShareoutInitiated"
	EventTypeShareoutCalculated = "ShareoutCalculated"
	EventTypeShareoutApproved   = "ShareoutApproved"
	EventTypeShareoutCompleted  = "ShareoutCompleted"
	EventTypeShareoutCancelled  = "ShareoutCancelled"
)

// ShareoutEvent carries the state of a shareout after a workflow step
type ShareoutEvent struct {
	shared.BaseDomainEvent
	CycleID           uuid.UUID       `json:"cycle_id"`
	Status            Status          `json:"status"`
	DistributableFund decimal.Decimal `json:"distributable_fund"`
	TotalActualPayout decimal.Decimal `json:"total_actual_payout"`
	TotalMembers      int             `json:"total_members"`
}

// NewShareoutEvent creates a ShareoutEvent of the given type
func NewShareoutEvent(eventType string, s *Shareout) *ShareoutEvent {
	return &ShareoutEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, "Shareout", s.ID, s.GroupID),
		CycleID:           s.CycleID,
		Status:            s.Status,
		DistributableFund: s.DistributableFund,
		TotalActualPayout: s.TotalActualPayout,
		TotalMembers:      s.TotalMembers,
	}
}
