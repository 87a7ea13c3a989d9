package loan

import (
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeLoanDisbursed = "LoanDisbursed"
	EventTypeLoanRepaid    = "LoanRepaid"
	EventTypeLoanPaidOff   = "LoanPaidOff"
	EventTypeLoanDefaulted = "LoanDefaulted"
	aggregateTypeLoan      = "Loan"
)

// LoanDisbursedEvent is raised when a loan is issued
type LoanDisbursedEvent struct {
	shared.BaseDomainEvent
	CycleID        uuid.UUID       `json:"cycle_id"`
	BorrowerID     uuid.UUID       `json:"borrower_id"`
	Principal      decimal.Decimal `json:"principal"`
	TotalAmountDue decimal.Decimal `json:"total_amount_due"`
}

// NewLoanDisbursedEvent creates a LoanDisbursedEvent
func NewLoanDisbursedEvent(l *Loan) *LoanDisbursedEvent {
	return &LoanDisbursedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanDisbursed, aggregateTypeLoan, l.ID, l.GroupID),
		CycleID:         l.CycleID,
		BorrowerID:      l.BorrowerID,
		Principal:       l.LoanAmount,
		TotalAmountDue:  l.TotalAmountDue,
	}
}

// LoanRepaidEvent is raised for every accepted repayment
type LoanRepaidEvent struct {
	shared.BaseDomainEvent
	CycleID    uuid.UUID       `json:"cycle_id"`
	BorrowerID uuid.UUID       `json:"borrower_id"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
}

// NewLoanRepaidEvent creates a LoanRepaidEvent
func NewLoanRepaidEvent(l *Loan, amount decimal.Decimal) *LoanRepaidEvent {
	return &LoanRepaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanRepaid, aggregateTypeLoan, l.ID, l.GroupID),
		CycleID:         l.CycleID,
		BorrowerID:      l.BorrowerID,
		Amount:          amount,
		Balance:         l.Balance,
	}
}

// LoanPaidOffEvent is raised when the balance reaches zero
type LoanPaidOffEvent struct {
	shared.BaseDomainEvent
	BorrowerID uuid.UUID       `json:"borrower_id"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// NewLoanPaidOffEvent creates a LoanPaidOffEvent
func NewLoanPaidOffEvent(l *Loan) *LoanPaidOffEvent {
	return &LoanPaidOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanPaidOff, aggregateTypeLoan, l.ID, l.GroupID),
		BorrowerID:      l.BorrowerID,
		AmountPaid:      l.AmountPaid,
	}
}

// LoanDefaultedEvent is raised when a loan is written as defaulted
type LoanDefaultedEvent struct {
	shared.BaseDomainEvent
	BorrowerID uuid.UUID       `json:"borrower_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// NewLoanDefaultedEvent creates a LoanDefaultedEvent
func NewLoanDefaultedEvent(l *Loan) *LoanDefaultedEvent {
	return &LoanDefaultedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanDefaulted, aggregateTypeLoan, l.ID, l.GroupID),
		BorrowerID:      l.BorrowerID,
		Balance:         l.Balance,
	}
}
