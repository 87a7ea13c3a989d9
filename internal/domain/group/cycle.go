package group

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CycleType distinguishes savings cycles from other group projects
type CycleType string

const (
	CycleTypeSavingsAssociation CycleType = "savings_association"
	CycleTypeProject            CycleType = "project"
)

// IsValid checks if the cycle type is known
func (t CycleType) IsValid() bool {
	return t == CycleTypeSavingsAssociation || t == CycleTypeProject
}

// SavingType selects how member contributions are weighted at shareout
type SavingType string

const (
	SavingTypeFixedShare SavingType = "fixed_share"
	SavingTypeFreeAmount SavingType = "free_amount"
)

// IsValid checks if the saving type is known
func (t SavingType) IsValid() bool {
	return t == SavingTypeFixedShare || t == SavingTypeFreeAmount
}

// CycleStatus represents whether a cycle still accepts postings
type CycleStatus string

const (
	CycleStatusOpen   CycleStatus = "open"
	CycleStatusClosed CycleStatus = "closed"
)

// Cycle is a bounded savings period of a group. Once closed by a completed
// shareout it is immutable.
type Cycle struct {
	shared.BaseAggregateRoot
	GroupID        uuid.UUID
	Name           string
	CycleType      CycleType
	SavingType     SavingType
	ShareUnitValue decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	IsActiveCycle  bool
	Status         CycleStatus
	ClosedAt       *time.Time
}

// NewCycle creates a new open, active cycle
func NewCycle(groupID uuid.UUID, name string, cycleType CycleType, savingType SavingType, shareUnitValue decimal.Decimal, start, end time.Time) (*Cycle, error) {
	if groupID == uuid.Nil {
		return nil, shared.NewValidationError("group_id", "group is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "cycle name cannot be empty")
	}
	if !cycleType.IsValid() {
		return nil, shared.NewValidationError("cycle_type", "unknown cycle type")
	}
	if !savingType.IsValid() {
		return nil, shared.NewValidationError("saving_type", "unknown saving type")
	}
	if !shareUnitValue.IsPositive() {
		return nil, shared.NewValidationError("share_unit_value", "share unit value must be positive")
	}
	if !end.After(start) {
		return nil, shared.NewValidationError("end_date", "end date must be after start date")
	}
	return &Cycle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GroupID:           groupID,
		Name:              strings.TrimSpace(name),
		CycleType:         cycleType,
		SavingType:        savingType,
		ShareUnitValue:    shareUnitValue,
		StartDate:         start,
		EndDate:           end,
		IsActiveCycle:     true,
		Status:            CycleStatusOpen,
	}, nil
}

// IsOpen reports whether the cycle is the group's active cycle and not closed
func (c *Cycle) IsOpen() bool {
	return c.IsActiveCycle && c.Status == CycleStatusOpen
}

// IsSavingsAssociation reports whether the cycle is a VSLA savings cycle
func (c *Cycle) IsSavingsAssociation() bool {
	return c.CycleType == CycleTypeSavingsAssociation
}

// EnsureAcceptsPostings checks the cycle can take new meetings, loans and
// ledger postings.
func (c *Cycle) EnsureAcceptsPostings() error {
	if !c.IsSavingsAssociation() {
		return shared.ErrCycleState.WithMessage("cycle %s is not a savings association cycle", c.ID)
	}
	if !c.IsOpen() {
		return shared.ErrCycleState.WithMessage("cycle %s is not the active open cycle of its group", c.ID)
	}
	return nil
}

// EnsureBelongsTo checks the cycle is owned by the given group
func (c *Cycle) EnsureBelongsTo(groupID uuid.UUID) error {
	if c.GroupID != groupID {
		return shared.ErrGroupMismatch.WithDetails(map[string]any{
			"cycle_group_id":     c.GroupID.String(),
			"requested_group_id": groupID.String(),
		})
	}
	return nil
}

// Close ends the cycle after a completed shareout
func (c *Cycle) Close(at time.Time) error {
	if c.Status == CycleStatusClosed {
		return shared.ErrCycleState.WithMessage("cycle %s is already closed", c.ID)
	}
	c.Status = CycleStatusClosed
	c.IsActiveCycle = false
	c.ClosedAt = &at
	c.UpdatedAt = at
	c.IncrementVersion()
	c.AddDomainEvent(NewCycleClosedEvent(c))
	return nil
}

// String implements fmt.Stringer for log fields
func (c *Cycle) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.ID)
}
