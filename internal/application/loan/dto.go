package loan

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID               uuid.UUID             `json:"id"`
	GroupID          uuid.UUID             `json:"group_id"`
	CycleID          uuid.UUID             `json:"cycle_id"`
	MeetingID        *uuid.UUID            `json:"meeting_id,omitempty"`
	BorrowerID       uuid.UUID             `json:"borrower_id"`
	LoanAmount       decimal.Decimal       `json:"loan_amount"`
	InterestRate     decimal.Decimal       `json:"interest_rate"`
	DurationMonths   int                   `json:"duration_months"`
	TotalAmountDue   decimal.Decimal       `json:"total_amount_due"`
	AmountPaid       decimal.Decimal       `json:"amount_paid"`
	Balance          decimal.Decimal       `json:"balance"`
	DisbursementDate time.Time             `json:"disbursement_date"`
	DueDate          time.Time             `json:"due_date"`
	Status           string                `json:"status"`
	IsOverdue        bool                  `json:"is_overdue"`
	Purpose          string                `json:"purpose,omitempty"`
	Transactions     []TransactionResponse `json:"transactions,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// TransactionResponse represents an entry of a loan's trail
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	MeetingID       *uuid.UUID      `json:"meeting_id,omitempty"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	Description     string          `json:"description,omitempty"`
	CreatedBy       uuid.UUID       `json:"created_by"`
}

// RepaymentResult is returned after an accepted repayment
type RepaymentResult struct {
	LoanID        uuid.UUID       `json:"loan_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        string          `json:"status"`
}

// DisburseCommand issues a new loan
type DisburseCommand struct {
	GroupID          uuid.UUID
	CycleID          uuid.UUID
	MeetingID        *uuid.UUID
	BorrowerID       uuid.UUID
	Amount           decimal.Decimal
	InterestRate     decimal.Decimal
	DurationMonths   int
	DisbursementDate time.Time
	Purpose          string
}

// RepayCommand records a repayment. CycleID, when set, restricts the loan to
// that cycle; a loan of another cycle is reported as not found.
type RepayCommand struct {
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentDate   time.Time
	MeetingID     *uuid.UUID
	CycleID       *uuid.UUID
}

// RepayRequest is the HTTP body of a repayment
type RepayRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"dpositive"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,max=50"`
	PaymentDate   string          `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
}

// ToCommand converts the request to a command
func (r RepayRequest) ToCommand() RepayCommand {
	return RepayCommand{
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		PaymentDate:   parseDate(r.PaymentDate),
	}
}

// AdjustRequest is the HTTP body of a penalty or a waiver
type AdjustRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"dpositive"`
	Reason string          `json:"reason" binding:"required,max=500"`
	Date   string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// AdjustCommand charges a penalty or grants a waiver
type AdjustCommand struct {
	Amount decimal.Decimal
	Reason string
	Date   time.Time
}

// ToCommand converts the request to a command
func (r AdjustRequest) ToCommand() AdjustCommand {
	return AdjustCommand{Amount: r.Amount, Reason: r.Reason, Date: parseDate(r.Date)}
}

// LoanListFilter represents filter options for loan lists
type LoanListFilter struct {
	GroupID    string `form:"group_id"`
	CycleID    string `form:"cycle_id"`
	BorrowerID string `form:"borrower_id"`
	Status     string `form:"status" binding:"omitempty,oneof=active paid defaulted"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query filter to a repository filter
func (f LoanListFilter) ToDomain() (loan.Filter, error) {
	filter := loan.Filter{SortBy: f.SortBy, SortOrder: f.SortOrder}
	var err error
	if filter.GroupID, err = shared.ParseOptionalID("group_id", f.GroupID); err != nil {
		return filter, err
	}
	if filter.CycleID, err = shared.ParseOptionalID("cycle_id", f.CycleID); err != nil {
		return filter, err
	}
	if filter.BorrowerID, err = shared.ParseOptionalID("borrower_id", f.BorrowerID); err != nil {
		return filter, err
	}
	if f.Status != "" {
		status := loan.Status(f.Status)
		filter.Status = &status
	}
	return filter, nil
}

// Pagination returns the requested page
func (f LoanListFilter) Pagination() shared.Pagination {
	return shared.Pagination{Page: f.Page, PageSize: f.PageSize}.Normalize()
}

// Scope narrows loan statistics. Unset fields do not narrow.
type Scope struct {
	GroupID  *uuid.UUID
	CycleID  *uuid.UUID
	MemberID *uuid.UUID
}

// ToLoanResponse converts a domain loan to a response
func ToLoanResponse(l *loan.Loan, today time.Time) LoanResponse {
	return LoanResponse{
		ID:               l.ID,
		GroupID:          l.GroupID,
		CycleID:          l.CycleID,
		MeetingID:        l.MeetingID,
		BorrowerID:       l.BorrowerID,
		LoanAmount:       l.LoanAmount,
		InterestRate:     l.InterestRate,
		DurationMonths:   l.DurationMonths,
		TotalAmountDue:   l.TotalAmountDue,
		AmountPaid:       l.AmountPaid,
		Balance:          l.Balance,
		DisbursementDate: l.DisbursementDate,
		DueDate:          l.DueDate,
		Status:           string(l.Status),
		IsOverdue:        l.IsOverdue(today),
		Purpose:          l.Purpose,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		Version:          l.Version,
	}
}

// ToTransactionResponse converts a trail entry to a response
func ToTransactionResponse(tx *loan.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		MeetingID:       tx.MeetingID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		PaymentMethod:   tx.PaymentMethod,
		TransactionDate: tx.TransactionDate,
		Description:     tx.Description,
		CreatedBy:       tx.CreatedBy,
	}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return d
}
