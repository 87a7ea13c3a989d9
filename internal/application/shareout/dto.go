package shareout

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareoutResponse represents a shareout in API responses
type ShareoutResponse struct {
	ID                    uuid.UUID       `json:"id"`
	GroupID               uuid.UUID       `json:"group_id"`
	CycleID               uuid.UUID       `json:"cycle_id"`
	Status                string          `json:"status"`
	ShareUnitValue        decimal.Decimal `json:"share_unit_value"`
	DistributableFund     decimal.Decimal `json:"distributable_fund"`
	TotalSavings          decimal.Decimal `json:"total_savings"`
	TotalShareValue       decimal.Decimal `json:"total_share_value"`
	TotalLoanInterest     decimal.Decimal `json:"total_loan_interest"`
	TotalFines            decimal.Decimal `json:"total_fines"`
	TotalMembers          int             `json:"total_members"`
	TotalShares           decimal.Decimal `json:"total_shares"`
	TotalOutstandingLoans decimal.Decimal `json:"total_outstanding_loans"`
	TotalActualPayout     decimal.Decimal `json:"total_actual_payout"`
	CalculationCount      int             `json:"calculation_count"`
	InitiatedBy           uuid.UUID       `json:"initiated_by"`
	CalculatedAt          *time.Time      `json:"calculated_at,omitempty"`
	ApprovedBy            *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time      `json:"approved_at,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason          string          `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Version               int             `json:"version"`
}

// DistributionResponse is one member's line of a shareout
type DistributionResponse struct {
	ID                       uuid.UUID       `json:"id"`
	MemberID                 uuid.UUID       `json:"member_id"`
	MemberName               string          `json:"member_name"`
	MemberShares             decimal.Decimal `json:"member_shares"`
	SharePercentage          decimal.Decimal `json:"share_percentage"`
	ProportionalDistribution decimal.Decimal `json:"proportional_distribution"`
	SavingsBalance           decimal.Decimal `json:"savings_balance"`
	OutstandingPrincipal     decimal.Decimal `json:"outstanding_principal"`
	OutstandingInterest      decimal.Decimal `json:"outstanding_interest"`
	OutstandingLoanTotal     decimal.Decimal `json:"outstanding_loan_total"`
	FinalPayout              decimal.Decimal `json:"final_payout"`
	CarriedForwardDebt       decimal.Decimal `json:"carried_forward_debt"`
	PaymentStatus            string          `json:"payment_status"`
	PaidAt                   *time.Time      `json:"paid_at,omitempty"`
}

// EligibleCycleResponse is an open cycle that can be shared out, with the
// shareout already in progress for it, if any
type EligibleCycleResponse struct {
	CycleID        uuid.UUID         `json:"cycle_id"`
	GroupID        uuid.UUID         `json:"group_id"`
	Name           string            `json:"name"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	ShareUnitValue decimal.Decimal   `json:"share_unit_value"`
	SavingType     string            `json:"saving_type"`
	LiveShareout   *ShareoutResponse `json:"live_shareout,omitempty"`
}

// InitiateRequest is the HTTP body that starts a shareout
type InitiateRequest struct {
	CycleID string `json:"cycle_id" binding:"required"`
}

// CancelRequest is the HTTP body of a cancellation
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ShareoutListFilter represents filter options for the shareout history
type ShareoutListFilter struct {
	GroupID  string `form:"group_id"`
	CycleID  string `form:"cycle_id"`
	Status   string `form:"status" binding:"omitempty,oneof=draft calculated approved processing completed cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query filter to a repository filter
func (f ShareoutListFilter) ToDomain() (shareout.Filter, error) {
	var (
		filter shareout.Filter
		err    error
	)
	if filter.GroupID, err = shared.ParseOptionalID("group_id", f.GroupID); err != nil {
		return filter, err
	}
	if filter.CycleID, err = shared.ParseOptionalID("cycle_id", f.CycleID); err != nil {
		return filter, err
	}
	if f.Status != "" {
		status := shareout.Status(f.Status)
		filter.Status = &status
	}
	return filter, nil
}

// Pagination returns the requested page
func (f ShareoutListFilter) Pagination() shared.Pagination {
	return shared.Pagination{Page: f.Page, PageSize: f.PageSize}.Normalize()
}

// ToShareoutResponse converts a domain shareout to a response
func ToShareoutResponse(s *shareout.Shareout) ShareoutResponse {
	return ShareoutResponse{
		ID:                    s.ID,
		GroupID:               s.GroupID,
		CycleID:               s.CycleID,
		Status:                string(s.Status),
		ShareUnitValue:        s.ShareUnitValue,
		DistributableFund:     s.DistributableFund,
		TotalSavings:          s.TotalSavings,
		TotalShareValue:       s.TotalShareValue,
		TotalLoanInterest:     s.TotalLoanInterest,
		TotalFines:            s.TotalFines,
		TotalMembers:          s.TotalMembers,
		TotalShares:           s.TotalShares,
		TotalOutstandingLoans: s.TotalOutstandingLoans,
		TotalActualPayout:     s.TotalActualPayout,
		CalculationCount:      s.CalculationCount,
		InitiatedBy:           s.InitiatedBy,
		CalculatedAt:          s.CalculatedAt,
		ApprovedBy:            s.ApprovedBy,
		ApprovedAt:            s.ApprovedAt,
		CompletedAt:           s.CompletedAt,
		CancelledAt:           s.CancelledAt,
		CancelReason:          s.CancelReason,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		Version:               s.Version,
	}
}

// ToDistributionResponse converts a distribution to a response
func ToDistributionResponse(d *shareout.Distribution) DistributionResponse {
	return DistributionResponse{
		ID:                       d.ID,
		MemberID:                 d.MemberID,
		MemberName:               d.MemberName,
		MemberShares:             d.MemberShares,
		SharePercentage:          d.SharePercentage,
		ProportionalDistribution: d.ProportionalDistribution,
		SavingsBalance:           d.SavingsBalance,
		OutstandingPrincipal:     d.OutstandingPrincipal,
		OutstandingInterest:      d.OutstandingInterest,
		OutstandingLoanTotal:     d.OutstandingLoanTotal,
		FinalPayout:              d.FinalPayout,
		CarriedForwardDebt:       d.CarriedForwardDebt,
		PaymentStatus:            string(d.PaymentStatus),
		PaidAt:                   d.PaidAt,
	}
}
