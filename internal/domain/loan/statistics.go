package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics summarizes a set of loans
type Statistics struct {
	TotalLoans           int             `json:"total_loans"`
	ActiveLoans          int             `json:"active_loans"`
	PaidLoans            int             `json:"paid_loans"`
	DefaultedLoans       int             `json:"defaulted_loans"`
	OverdueLoans         int             `json:"overdue_loans"`
	TotalDisbursed       decimal.Decimal `json:"total_disbursed"`
	TotalDue             decimal.Decimal `json:"total_due"`
	TotalRepaid          decimal.Decimal `json:"total_repaid"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	InterestEarned       decimal.Decimal `json:"interest_earned"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	OutstandingInterest  decimal.Decimal `json:"outstanding_interest"`
	RepaymentRate        decimal.Decimal `json:"repayment_rate"`
}

// Summarize computes statistics. InterestEarned is the interest portion of
// what has been repaid, allocated interest first.
func Summarize(loans []Loan, today time.Time) Statistics {
	s := Statistics{
		TotalDisbursed:       decimal.Zero,
		TotalDue:             decimal.Zero,
		TotalRepaid:          decimal.Zero,
		TotalOutstanding:     decimal.Zero,
		InterestEarned:       decimal.Zero,
		OutstandingPrincipal: decimal.Zero,
		OutstandingInterest:  decimal.Zero,
		RepaymentRate:        decimal.Zero,
	}
	for i := range loans {
		l := &loans[i]
		s.TotalLoans++
		switch l.Status {
		case StatusActive:
			s.ActiveLoans++
		case StatusPaid:
			s.PaidLoans++
		case StatusDefaulted:
			s.DefaultedLoans++
		}
		if l.IsOverdue(today) {
			s.OverdueLoans++
		}
		alloc := l.Allocate()
		s.TotalDisbursed = s.TotalDisbursed.Add(l.LoanAmount)
		s.TotalDue = s.TotalDue.Add(l.TotalAmountDue)
		s.TotalRepaid = s.TotalRepaid.Add(l.AmountPaid)
		s.TotalOutstanding = s.TotalOutstanding.Add(l.Balance)
		s.InterestEarned = s.InterestEarned.Add(alloc.InterestPaid)
		s.OutstandingPrincipal = s.OutstandingPrincipal.Add(alloc.OutstandingPrincipal)
		s.OutstandingInterest = s.OutstandingInterest.Add(alloc.OutstandingInterest)
	}
	if s.TotalDue.IsPositive() {
		s.RepaymentRate = s.TotalRepaid.Div(s.TotalDue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return s
}
