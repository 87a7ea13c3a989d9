package loan

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter selects loans
type Filter struct {
	GroupID    *uuid.UUID
	CycleID    *uuid.UUID
	BorrowerID *uuid.UUID
	Status     *Status
	// SortBy names a column; unknown names fall back to disbursement date
	SortBy     string
	SortOrder  string
}

// LoanRepository persists loans and their transaction trail
type LoanRepository interface {
	Create(ctx context.Context, l *Loan) error
	// Save updates the projected fields and status
	Save(ctx context.Context, l *Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	// FindByIDForUpdate loads the loan with a row lock; concurrent
	// repayments on one loan are serialized by it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Loan, error)
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]Loan, int64, error)
	// FindOutstanding returns loans of the cycle with a positive balance
	FindOutstanding(ctx context.Context, cycleID uuid.UUID) ([]Loan, error)
	ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]Loan, error)

	AppendTransactions(ctx context.Context, txs ...Transaction) error
	ListTransactions(ctx context.Context, loanID uuid.UUID) ([]Transaction, error)
	// TrailTotals aggregates the stored trail of a loan
	TrailTotals(ctx context.Context, loanID uuid.UUID) (TrailTotals, error)
}
