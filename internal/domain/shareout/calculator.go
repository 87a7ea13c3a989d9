package shareout

import (
	"sort"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// percentPlaces is the precision of share percentages
const percentPlaces int32 = 6

var hundred = decimal.NewFromInt(100)

// MemberPosition is a member's standing at the end of the cycle
type MemberPosition struct {
	MemberID             uuid.UUID
	Name                 string
	Shares               decimal.Decimal
	Savings              decimal.Decimal
	OutstandingPrincipal decimal.Decimal
	OutstandingInterest  decimal.Decimal
}

// Inputs are the cycle figures a calculation works from
type Inputs struct {
	TotalSavings       decimal.Decimal
	TotalShareValue    decimal.Decimal
	LoanInterestEarned decimal.Decimal
	FinesCollected     decimal.Decimal
	Members            []MemberPosition
}

// Policy holds the payout rules that are configured per deployment
type Policy struct {
	// ClampNegativePayout pays zero instead of a negative amount and records
	// the remainder as carried forward debt
	ClampNegativePayout bool
}

// Result is a computed distribution set
type Result struct {
	DistributableFund  decimal.Decimal
	TotalSavings       decimal.Decimal
	TotalShareValue    decimal.Decimal
	LoanInterestEarned decimal.Decimal
	FinesCollected     decimal.Decimal
	TotalShares        decimal.Decimal
	TotalOutstanding   decimal.Decimal
	TotalPayout        decimal.Decimal
	Distributions      []Distribution
}

// Calculate computes every member's share of the distributable fund net of
// their outstanding loans. It has no side effects.
func Calculate(shareoutID uuid.UUID, in Inputs, policy Policy) *Result {
	fund := shared.SumMoney(in.TotalSavings, in.TotalShareValue, in.LoanInterestEarned, in.FinesCollected)

	members := make([]MemberPosition, len(in.Members))
	copy(members, in.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].MemberID.String() < members[j].MemberID.String()
	})

	totalShares := decimal.Zero
	for _, m := range members {
		if m.Shares.IsPositive() {
			totalShares = totalShares.Add(m.Shares)
		}
	}

	r := &Result{
		DistributableFund:  fund,
		TotalSavings:       in.TotalSavings,
		TotalShareValue:    in.TotalShareValue,
		LoanInterestEarned: in.LoanInterestEarned,
		FinesCollected:     in.FinesCollected,
		TotalShares:        totalShares,
		TotalOutstanding:   decimal.Zero,
		TotalPayout:        decimal.Zero,
		Distributions:      make([]Distribution, 0, len(members)),
	}

	for _, m := range members {
		shares := m.Shares
		if shares.IsNegative() {
			shares = decimal.Zero
		}
		percentage := decimal.Zero
		proportional := decimal.Zero
		if totalShares.IsPositive() {
			percentage = shares.Div(totalShares).Mul(hundred).Round(percentPlaces)
			proportional = shared.RoundMoney(fund.Mul(shares).Div(totalShares))
		}
		principal := m.OutstandingPrincipal
		interest := m.OutstandingInterest
		outstanding := principal.Add(interest)
		payout := proportional.Sub(outstanding)
		carried := decimal.Zero
		if payout.IsNegative() {
			carried = payout.Neg()
			if policy.ClampNegativePayout {
				payout = decimal.Zero
			}
		}

		r.Distributions = append(r.Distributions, Distribution{
			ID:                       uuid.New(),
			ShareoutID:               shareoutID,
			MemberID:                 m.MemberID,
			MemberName:               m.Name,
			MemberShares:             shares,
			SharePercentage:          percentage,
			ProportionalDistribution: proportional,
			SavingsBalance:           m.Savings,
			OutstandingPrincipal:     principal,
			OutstandingInterest:      interest,
			OutstandingLoanTotal:     outstanding,
			FinalPayout:              payout,
			CarriedForwardDebt:       carried,
			PaymentStatus:            PaymentPending,
		})
		r.TotalOutstanding = r.TotalOutstanding.Add(outstanding)
		r.TotalPayout = r.TotalPayout.Add(payout)
	}
	return r
}

// SumProportional adds up the proportional distributions
func SumProportional(ds []Distribution) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.ProportionalDistribution)
	}
	return total
}
