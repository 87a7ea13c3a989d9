package shareout

import (
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the workflow state of a shareout
type Status string

const (
	StatusDraft      Status = "draft"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusCalculated, StatusApproved, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LiveStatuses are the non-terminal statuses; a cycle has at most one
// shareout in any of them
var LiveStatuses = []Status{StatusDraft, StatusCalculated, StatusApproved, StatusProcessing}

// CanTransitionTo checks if the status can move to target
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusCalculated || target == StatusCancelled
	case StatusCalculated:
		return target == StatusCalculated || target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusCompleted
	}
	return false
}

// CanCalculate reports whether distributions may be (re)computed
func (s Status) CanCalculate() bool {
	return s == StatusDraft || s == StatusCalculated
}

// Shareout is the end-of-cycle distribution of a cycle's fund
type Shareout struct {
	shared.BaseAggregateRoot
	CycleID               uuid.UUID
	GroupID               uuid.UUID
	Status                Status
	ShareUnitValue        decimal.Decimal
	DistributableFund     decimal.Decimal
	TotalSavings          decimal.Decimal
	TotalShareValue       decimal.Decimal
	TotalLoanInterest     decimal.Decimal
	TotalFines            decimal.Decimal
	TotalMembers          int
	TotalShares           decimal.Decimal
	TotalOutstandingLoans decimal.Decimal
	TotalActualPayout     decimal.Decimal
	InitiatedBy           uuid.UUID
	CalculatedAt          *time.Time
	CalculationCount      int
	ApprovedBy            *uuid.UUID
	ApprovedAt            *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string
}

// NewShareout creates a draft shareout with the cycle's share unit value
func NewShareout(groupID, cycleID uuid.UUID, shareUnitValue decimal.Decimal, initiatedBy uuid.UUID) (*Shareout, error) {
	if groupID == uuid.Nil || cycleID == uuid.Nil {
		return nil, shared.NewValidationError("cycle_id", "group and cycle are required")
	}
	s := &Shareout{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		CycleID:               cycleID,
		GroupID:               groupID,
		Status:                StatusDraft,
		ShareUnitValue:        shareUnitValue,
		DistributableFund:     decimal.Zero,
		TotalSavings:          decimal.Zero,
		TotalShareValue:       decimal.Zero,
		TotalLoanInterest:     decimal.Zero,
		TotalFines:            decimal.Zero,
		TotalShares:           decimal.Zero,
		TotalOutstandingLoans: decimal.Zero,
		TotalActualPayout:     decimal.Zero,
		InitiatedBy:           initiatedBy,
	}
	s.AddDomainEvent(NewShareoutEvent(EventTypeShareoutInitiated, s))
	return s, nil
}

func (s *Shareout) transition(target Status) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.ErrShareoutState.
			WithMessage("shareout %s cannot move from %s to %s", s.ID, s.Status, target).
			WithDetails(map[string]any{"status": string(s.Status), "target": string(target)})
	}
	s.Status = target
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// EnsureCalculable checks that distributions may be (re)computed
func (s *Shareout) EnsureCalculable() error {
	if !s.Status.CanCalculate() {
		return shared.ErrShareoutState.
			WithMessage("shareout %s is %s; only draft or calculated shareouts can be calculated", s.ID, s.Status).
			WithDetails(map[string]any{"status": string(s.Status)})
	}
	return nil
}

// ApplyCalculation snapshots the result totals and moves to calculated
func (s *Shareout) ApplyCalculation(r *Result) error {
	if err := s.EnsureCalculable(); err != nil {
		return err
	}
	if err := s.transition(StatusCalculated); err != nil {
		return err
	}
	s.DistributableFund = r.DistributableFund
	s.TotalSavings = r.TotalSavings
	s.TotalShareValue = r.TotalShareValue
	s.TotalLoanInterest = r.LoanInterestEarned
	s.TotalFines = r.FinesCollected
	s.TotalMembers = len(r.Distributions)
	s.TotalShares = r.TotalShares
	s.TotalOutstandingLoans = r.TotalOutstanding
	s.TotalActualPayout = r.TotalPayout
	now := time.Now()
	s.CalculatedAt = &now
	s.CalculationCount++
	s.AddDomainEvent(NewShareoutEvent(EventTypeShareoutCalculated, s))
	return nil
}

// EnsureCurrent compares the stored distributions with a fresh computation
// over the same cycle and fails with ErrShareoutStale when money moved in
// between.
func (s *Shareout) EnsureCurrent(stored []Distribution, fresh *Result) error {
	stale := func(field string) error {
		return shared.ErrShareoutStale.
			WithMessage("shareout %s no longer matches its cycle (%s changed); recalculate before paying out", s.ID, field).
			WithDetails(map[string]any{
				"field":                   field,
				"calculated_fund":         s.DistributableFund.StringFixed(2),
				"current_fund":            fresh.DistributableFund.StringFixed(2),
				"calculated_outstanding":  s.TotalOutstandingLoans.StringFixed(2),
				"current_outstanding":     fresh.TotalOutstanding.StringFixed(2),
				"calculated_member_count": len(stored),
				"current_member_count":    len(fresh.Distributions),
			})
	}
	if !sameMoney(s.DistributableFund, fresh.DistributableFund) {
		return stale("distributable_fund")
	}
	if !sameMoney(s.TotalOutstandingLoans, fresh.TotalOutstanding) {
		return stale("total_outstanding")
	}
	if len(stored) != len(fresh.Distributions) {
		return stale("members")
	}
	byMember := make(map[uuid.UUID]*Distribution, len(stored))
	for i := range stored {
		byMember[stored[i].MemberID] = &stored[i]
	}
	for i := range fresh.Distributions {
		f := &fresh.Distributions[i]
		d, ok := byMember[f.MemberID]
		if !ok {
			return stale("members")
		}
		if !sameMoney(d.FinalPayout, f.FinalPayout) ||
			!sameMoney(d.CarriedForwardDebt, f.CarriedForwardDebt) ||
			!sameMoney(d.OutstandingLoanTotal, f.OutstandingLoanTotal) {
			return stale("member_payout")
		}
	}
	return nil
}

func sameMoney(a, b decimal.Decimal) bool {
	return shared.RoundMoney(a).Equal(shared.RoundMoney(b))
}

// Approve records the approver. Authorization is checked by the caller.
func (s *Shareout) Approve(approver uuid.UUID) error {
	if err := s.transition(StatusApproved); err != nil {
		return err
	}
	now := time.Now()
	s.ApprovedBy = &approver
	s.ApprovedAt = &now
	s.AddDomainEvent(NewShareoutEvent(EventTypeShareoutApproved, s))
	return nil
}

// StartProcessing moves an approved shareout into payout processing
func (s *Shareout) StartProcessing() error {
	return s.transition(StatusProcessing)
}

// Complete finishes payout processing
func (s *Shareout) Complete() error {
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	s.CompletedAt = &now
	s.AddDomainEvent(NewShareoutEvent(EventTypeShareoutCompleted, s))
	return nil
}

// Cancel ends the shareout without touching the cycle or loans
func (s *Shareout) Cancel(reason string) error {
	if err := s.transition(StatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	s.CancelledAt = &now
	s.CancelReason = strings.TrimSpace(reason)
	s.AddDomainEvent(NewShareoutEvent(EventTypeShareoutCancelled, s))
	return nil
}
