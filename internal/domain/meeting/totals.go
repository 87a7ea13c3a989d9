package meeting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals are the meeting aggregates computed from what was posted
type Totals struct {
	Savings        decimal.Decimal `json:"total_savings"`
	SharesValue    decimal.Decimal `json:"total_shares_value"`
	SharesCount    int             `json:"total_shares_count"`
	Fines          decimal.Decimal `json:"total_fines"`
	Welfare        decimal.Decimal `json:"total_welfare"`
	SocialFund     decimal.Decimal `json:"total_social_fund"`
	LoansDisbursed decimal.Decimal `json:"total_loans_disbursed"`
	LoansRepaid    decimal.Decimal `json:"total_loans_repaid"`
}

// ZeroTotals returns totals with every amount set to zero
func ZeroTotals() Totals {
	return Totals{
		Savings:        decimal.Zero,
		SharesValue:    decimal.Zero,
		Fines:          decimal.Zero,
		Welfare:        decimal.Zero,
		SocialFund:     decimal.Zero,
		LoansDisbursed: decimal.Zero,
		LoansRepaid:    decimal.Zero,
	}
}

// Compare lists the advisory client totals that differ from the posted ones
func (t Totals) Compare(client *ClientTotals) []Issue {
	if client == nil {
		return nil
	}
	var issues []Issue
	check := func(name string, declared *decimal.Decimal, posted decimal.Decimal) {
		if declared == nil || declared.Equal(posted) {
			return
		}
		issues = append(issues, Issue{
			Item:    "totals",
			Index:   -1,
			Code:    CodeClientTotalMismatch,
			Message: fmt.Sprintf("%s declared %s, posted %s", name, declared.StringFixed(2), posted.StringFixed(2)),
		})
	}
	check("total_savings", client.Savings, t.Savings)
	check("total_shares_value", client.SharesValue, t.SharesValue)
	check("total_fines", client.Fines, t.Fines)
	check("total_welfare", client.Welfare, t.Welfare)
	check("total_social_fund", client.SocialFund, t.SocialFund)
	check("total_loans_disbursed", client.LoansDisbursed, t.LoansDisbursed)
	check("total_loans_repaid", client.LoansRepaid, t.LoansRepaid)
	return issues
}

// Add returns the sum of two totals
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Savings:        t.Savings.Add(o.Savings),
		SharesValue:    t.SharesValue.Add(o.SharesValue),
		SharesCount:    t.SharesCount + o.SharesCount,
		Fines:          t.Fines.Add(o.Fines),
		Welfare:        t.Welfare.Add(o.Welfare),
		SocialFund:     t.SocialFund.Add(o.SocialFund),
		LoansDisbursed: t.LoansDisbursed.Add(o.LoansDisbursed),
		LoansRepaid:    t.LoansRepaid.Add(o.LoansRepaid),
	}
}
