package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a loan
type Status string

const (
	StatusActive    Status = "active"
	StatusPaid      Status = "paid"
	StatusDefaulted Status = "defaulted"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusPaid || s == StatusDefaulted
}

// Loan is a member's borrowing within a cycle. TotalAmountDue, AmountPaid and
// Balance are a projection of the transaction trail and are only changed
// through Project.
type Loan struct {
	shared.BaseAggregateRoot
	GroupID          uuid.UUID
	CycleID          uuid.UUID
	MeetingID        *uuid.UUID
	BorrowerID       uuid.UUID
	LoanAmount       decimal.Decimal
	InterestRate     decimal.Decimal
	DurationMonths   int
	TotalAmountDue   decimal.Decimal
	AmountPaid       decimal.Decimal
	Balance          decimal.Decimal
	DisbursementDate time.Time
	DueDate          time.Time
	Status           Status
	Purpose          string
	CreatedBy        uuid.UUID
}

// DisburseParams holds the inputs of a new loan
type DisburseParams struct {
	GroupID          uuid.UUID
	CycleID          uuid.UUID
	MeetingID        *uuid.UUID
	BorrowerID       uuid.UUID
	Principal        decimal.Decimal
	InterestRate     decimal.Decimal
	DurationMonths   int
	DisbursementDate time.Time
	Purpose          string
	CreatedBy        uuid.UUID
}

// Disburse creates a loan together with its opening trail: a principal
// charge and the interest computed once at disbursement.
func Disburse(p DisburseParams) (*Loan, []Transaction, error) {
	if p.GroupID == uuid.Nil || p.CycleID == uuid.Nil {
		return nil, nil, shared.NewValidationError("cycle_id", "group and cycle are required")
	}
	if p.BorrowerID == uuid.Nil {
		return nil, nil, shared.NewValidationError("borrower_id", "borrower is required")
	}
	if !p.Principal.IsPositive() {
		return nil, nil, shared.NewValidationError("loan_amount", "loan amount must be positive")
	}
	if p.InterestRate.IsNegative() {
		return nil, nil, shared.NewValidationError("interest_rate", "interest rate cannot be negative")
	}
	if p.DurationMonths <= 0 {
		return nil, nil, shared.NewValidationError("duration_months", "duration must be at least one month")
	}
	disbursed := p.DisbursementDate
	if disbursed.IsZero() {
		disbursed = time.Now()
	}

	principal := shared.RoundMoney(p.Principal)
	totalDue := shared.RoundMoney(principal.Mul(decimal.NewFromInt(1).Add(p.InterestRate)))
	interest := totalDue.Sub(principal)

	l := &Loan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GroupID:           p.GroupID,
		CycleID:           p.CycleID,
		MeetingID:         p.MeetingID,
		BorrowerID:        p.BorrowerID,
		LoanAmount:        principal,
		InterestRate:      p.InterestRate,
		DurationMonths:    p.DurationMonths,
		DisbursementDate:  disbursed,
		DueDate:           disbursed.AddDate(0, p.DurationMonths, 0),
		Status:            StatusActive,
		Purpose:           strings.TrimSpace(p.Purpose),
		CreatedBy:         p.CreatedBy,
	}

	principalTx, err := NewTransaction(l.ID, TxPrincipal, principal, disbursed, p.CreatedBy)
	if err != nil {
		return nil, nil, err
	}
	principalTx.WithMeeting(p.MeetingID).WithDescription("loan disbursement")
	trail := []Transaction{*principalTx}

	if interest.IsPositive() {
		interestTx, err := NewTransaction(l.ID, TxInterest, interest, disbursed, p.CreatedBy)
		if err != nil {
			return nil, nil, err
		}
		interestTx.WithMeeting(p.MeetingID).WithDescription(fmt.Sprintf("interest at %s", p.InterestRate.String()))
		trail = append(trail, *interestTx)
	}

	l.Project(Totalize(trail))
	l.AddDomainEvent(NewLoanDisbursedEvent(l))
	return l, trail, nil
}

// Project sets the derived amounts and status from trail totals
func (l *Loan) Project(t TrailTotals) {
	l.TotalAmountDue = t.TotalDue()
	l.AmountPaid = t.AmountPaid()
	l.Balance = t.Balance()
	switch {
	case l.Balance.IsZero() || l.Balance.IsNegative():
		l.Status = StatusPaid
	case l.Status == StatusPaid:
		l.Status = StatusActive
	}
	l.UpdatedAt = time.Now()
}

// currentTotals reconstructs totals from the projected fields, used to apply
// a new transaction before the trail is re-read from storage
func (l *Loan) currentTotals() TrailTotals {
	return TrailTotals{
		Principal:   l.TotalAmountDue,
		Interest:    decimal.Zero,
		Penalties:   decimal.Zero,
		Payments:    l.AmountPaid,
		Waivers:     decimal.Zero,
		Adjustments: decimal.Zero,
	}
}

// RepayParams holds a repayment request
type RepayParams struct {
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentDate   time.Time
	MeetingID     *uuid.UUID
	CreatedBy     uuid.UUID
}

// Repay records a payment. Amounts above the outstanding balance are rejected
// and leave the loan unchanged.
func (l *Loan) Repay(p RepayParams) (*Transaction, error) {
	if !p.Amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "repayment amount must be positive")
	}
	amount := shared.RoundMoney(p.Amount)
	if amount.GreaterThan(l.Balance) {
		return nil, shared.ErrAmountExceedsBalance.
			WithMessage("repayment of %s exceeds outstanding balance of %s", amount.StringFixed(2), l.Balance.StringFixed(2)).
			WithDetails(map[string]any{
				"loan_id":          l.ID.String(),
				"balance":          l.Balance.StringFixed(2),
				"requested_amount": amount.StringFixed(2),
			})
	}
	tx, err := NewTransaction(l.ID, TxPayment, amount, p.PaymentDate, p.CreatedBy)
	if err != nil {
		return nil, err
	}
	tx.WithMeeting(p.MeetingID).WithPaymentMethod(p.PaymentMethod).WithDescription("repayment")

	l.Project(l.currentTotals().Add(*tx))
	l.IncrementVersion()
	l.AddDomainEvent(NewLoanRepaidEvent(l, amount))
	if l.Status == StatusPaid {
		l.AddDomainEvent(NewLoanPaidOffEvent(l))
	}
	return tx, nil
}

// ApplyPenalty charges a penalty on an unpaid loan
func (l *Loan) ApplyPenalty(amount decimal.Decimal, reason string, date time.Time, actor uuid.UUID) (*Transaction, error) {
	if l.Status == StatusPaid {
		return nil, shared.ErrLoanState.WithMessage("cannot charge a penalty on paid loan %s", l.ID)
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "penalty must be positive")
	}
	tx, err := NewTransaction(l.ID, TxPenalty, amount, date, actor)
	if err != nil {
		return nil, err
	}
	tx.WithDescription(reason)
	l.Project(l.currentTotals().Add(*tx))
	l.IncrementVersion()
	return tx, nil
}

// Waive forgives part of the outstanding balance
func (l *Loan) Waive(amount decimal.Decimal, reason string, date time.Time, actor uuid.UUID) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "waiver must be positive")
	}
	if amount.GreaterThan(l.Balance) {
		return nil, shared.ErrAmountExceedsBalance.
			WithMessage("waiver of %s exceeds outstanding balance of %s", amount.StringFixed(2), l.Balance.StringFixed(2)).
			WithDetails(map[string]any{"balance": l.Balance.StringFixed(2), "requested_amount": amount.StringFixed(2)})
	}
	tx, err := NewTransaction(l.ID, TxWaiver, amount, date, actor)
	if err != nil {
		return nil, err
	}
	tx.WithDescription(reason)
	l.Project(l.currentTotals().Add(*tx))
	l.IncrementVersion()
	if l.Status == StatusPaid {
		l.AddDomainEvent(NewLoanPaidOffEvent(l))
	}
	return tx, nil
}

// MarkDefaulted moves an active loan with an outstanding balance to defaulted
func (l *Loan) MarkDefaulted() error {
	if l.Status != StatusActive {
		return shared.ErrLoanState.WithMessage("only active loans can default, loan %s is %s", l.ID, l.Status)
	}
	l.Status = StatusDefaulted
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	l.AddDomainEvent(NewLoanDefaultedEvent(l))
	return nil
}

// IsOverdue reports whether the due date has passed for an active loan.
// There is no grace period.
func (l *Loan) IsOverdue(today time.Time) bool {
	if l.Status != StatusActive {
		return false
	}
	return dateOnly(l.DueDate).Before(dateOnly(today))
}

// Charges is everything owed beyond the principal: interest, penalties and
// negative adjustments
func (l *Loan) Charges() decimal.Decimal {
	return l.TotalAmountDue.Sub(l.LoanAmount)
}

// Allocation splits what has been paid into interest and principal, interest
// first. It is a reporting view; Balance does not depend on it.
type Allocation struct {
	InterestPaid         decimal.Decimal
	PrincipalPaid        decimal.Decimal
	OutstandingInterest  decimal.Decimal
	OutstandingPrincipal decimal.Decimal
}

// Allocate returns the interest-first allocation of AmountPaid
func (l *Loan) Allocate() Allocation {
	charges := l.Charges()
	if charges.IsNegative() {
		charges = decimal.Zero
	}
	interestPaid := decimal.Min(l.AmountPaid, charges)
	principalPaid := l.AmountPaid.Sub(interestPaid)
	if principalPaid.GreaterThan(l.LoanAmount) {
		principalPaid = l.LoanAmount
	}
	return Allocation{
		InterestPaid:         interestPaid,
		PrincipalPaid:        principalPaid,
		OutstandingInterest:  charges.Sub(interestPaid),
		OutstandingPrincipal: l.LoanAmount.Sub(principalPaid),
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
