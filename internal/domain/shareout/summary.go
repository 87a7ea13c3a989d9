package shareout

import (
	"github.com/shopspring/decimal"
)

// Summary is the read-only review of a calculated shareout
type Summary struct {
	ShareoutID                string          `json:"shareout_id"`
	Status                    Status          `json:"status"`
	DistributableFund         decimal.Decimal `json:"distributable_fund"`
	TotalSavings              decimal.Decimal `json:"total_savings"`
	TotalShareValue           decimal.Decimal `json:"total_share_value"`
	TotalLoanInterest         decimal.Decimal `json:"total_loan_interest"`
	TotalFines                decimal.Decimal `json:"total_fines"`
	TotalMembers              int             `json:"total_members"`
	TotalShares               decimal.Decimal `json:"total_shares"`
	TotalOutstandingLoans     decimal.Decimal `json:"total_outstanding_loans"`
	TotalActualPayout         decimal.Decimal `json:"total_actual_payout"`
	TotalCarriedForwardDebt   decimal.Decimal `json:"total_carried_forward_debt"`
	HighestPayout             decimal.Decimal `json:"highest_payout"`
	LowestPayout              decimal.Decimal `json:"lowest_payout"`
	AveragePayout             decimal.Decimal `json:"average_payout"`
	MembersWithLoans          int             `json:"members_with_loans"`
	MembersWithPositivePayout int             `json:"members_with_positive_payout"`
}

// Summarize builds the summary of a shareout and its distributions
func Summarize(s *Shareout, ds []Distribution) Summary {
	sum := Summary{
		ShareoutID:              s.ID.String(),
		Status:                  s.Status,
		DistributableFund:       s.DistributableFund,
		TotalSavings:            s.TotalSavings,
		TotalShareValue:         s.TotalShareValue,
		TotalLoanInterest:       s.TotalLoanInterest,
		TotalFines:              s.TotalFines,
		TotalMembers:            len(ds),
		TotalShares:             s.TotalShares,
		TotalOutstandingLoans:   s.TotalOutstandingLoans,
		TotalActualPayout:       s.TotalActualPayout,
		TotalCarriedForwardDebt: decimal.Zero,
		HighestPayout:           decimal.Zero,
		LowestPayout:            decimal.Zero,
		AveragePayout:           decimal.Zero,
	}
	if len(ds) == 0 {
		return sum
	}
	total := decimal.Zero
	for i, d := range ds {
		if i == 0 || d.FinalPayout.GreaterThan(sum.HighestPayout) {
			sum.HighestPayout = d.FinalPayout
		}
		if i == 0 || d.FinalPayout.LessThan(sum.LowestPayout) {
			sum.LowestPayout = d.FinalPayout
		}
		if d.HasLoans() {
			sum.MembersWithLoans++
		}
		if d.FinalPayout.IsPositive() {
			sum.MembersWithPositivePayout++
		}
		total = total.Add(d.FinalPayout)
		sum.TotalCarriedForwardDebt = sum.TotalCarriedForwardDebt.Add(d.CarriedForwardDebt)
	}
	sum.AveragePayout = total.Div(decimal.NewFromInt(int64(len(ds)))).Round(2)
	return sum
}
