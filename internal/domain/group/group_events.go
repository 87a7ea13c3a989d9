package group

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
)

const (
	EventTypeCycleClosed = "CycleClosed"
	aggregateTypeCycle   = "Cycle"
)

// CycleClosedEvent is raised when a completed shareout closes a cycle
type CycleClosedEvent struct {
	shared.BaseDomainEvent
	CycleName string    `json:"cycle_name"`
	ClosedAt  time.Time `json:"closed_at"`
}

// NewCycleClosedEvent creates a CycleClosedEvent
func NewCycleClosedEvent(c *Cycle) *CycleClosedEvent {
	closedAt := time.Now()
	if c.ClosedAt != nil {
		closedAt = *c.ClosedAt
	}
	return &CycleClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCycleClosed, aggregateTypeCycle, c.ID, c.GroupID),
		CycleName:       c.Name,
		ClosedAt:        closedAt,
	}
}
