package socialfund

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionResponse represents a social fund movement in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	GroupID         uuid.UUID       `json:"group_id"`
	CycleID         *uuid.UUID      `json:"cycle_id,omitempty"`
	MemberID        *uuid.UUID      `json:"member_id,omitempty"`
	MeetingID       *uuid.UUID      `json:"meeting_id,omitempty"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	Description     string          `json:"description,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BalanceResponse is the social fund balance of a scope
type BalanceResponse struct {
	GroupID uuid.UUID       `json:"group_id"`
	CycleID *uuid.UUID      `json:"cycle_id,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// MovementCommand is a contribution or a withdrawal. Amount is the positive
// magnitude in both cases.
type MovementCommand struct {
	GroupID     uuid.UUID
	CycleID     *uuid.UUID
	MemberID    *uuid.UUID
	MeetingID   *uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Reason      string
}

func (c MovementCommand) movement(actor shared.Actor) socialfund.Movement {
	return socialfund.Movement{
		GroupID:     c.GroupID,
		CycleID:     c.CycleID,
		MemberID:    c.MemberID,
		MeetingID:   c.MeetingID,
		Amount:      c.Amount,
		Date:        c.Date,
		Description: c.Description,
		Reason:      c.Reason,
		CreatedBy:   actor.UserID,
	}
}

// CreateTransactionRequest is the HTTP body of POST /social-fund/transactions
type CreateTransactionRequest struct {
	GroupID         string          `json:"group_id" binding:"required,uuid"`
	CycleID         string          `json:"cycle_id" binding:"omitempty,uuid"`
	MemberID        string          `json:"member_id" binding:"omitempty,uuid"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=contribution withdrawal"`
	Amount          decimal.Decimal `json:"amount" binding:"dpositive"`
	TransactionDate string          `json:"transaction_date" binding:"omitempty,datetime=2006-01-02"`
	Description     string          `json:"description" binding:"max=500"`
	Reason          string          `json:"reason" binding:"max=500"`
}

// IsWithdrawal reports whether the request takes money out of the fund
func (r CreateTransactionRequest) IsWithdrawal() bool {
	return r.TransactionType == string(socialfund.TypeWithdrawal)
}

// ToCommand converts the request to a command
func (r CreateTransactionRequest) ToCommand() (MovementCommand, error) {
	groupID, err := shared.ParseID("group_id", r.GroupID)
	if err != nil {
		return MovementCommand{}, err
	}
	cycleID, err := shared.ParseOptionalID("cycle_id", r.CycleID)
	if err != nil {
		return MovementCommand{}, err
	}
	memberID, err := shared.ParseOptionalID("member_id", r.MemberID)
	if err != nil {
		return MovementCommand{}, err
	}
	var date time.Time
	if r.TransactionDate != "" {
		if date, err = time.Parse(time.DateOnly, r.TransactionDate); err != nil {
			return MovementCommand{}, shared.NewValidationError("transaction_date", "must be YYYY-MM-DD")
		}
	}
	return MovementCommand{
		GroupID:     groupID,
		CycleID:     cycleID,
		MemberID:    memberID,
		Amount:      r.Amount,
		Date:        date,
		Description: r.Description,
		Reason:      r.Reason,
	}, nil
}

// BalanceQuery selects the scope of GET /social-fund/balance
type BalanceQuery struct {
	GroupID string `form:"group_id" binding:"required"`
	CycleID string `form:"cycle_id"`
}

// Scope parses the query ids
func (q BalanceQuery) Scope() (uuid.UUID, *uuid.UUID, error) {
	groupID, err := shared.ParseID("group_id", q.GroupID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	cycleID, err := shared.ParseOptionalID("cycle_id", q.CycleID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return groupID, cycleID, nil
}

// TransactionListFilter represents filter options for social fund history
type TransactionListFilter struct {
	GroupID         string     `form:"group_id" binding:"required"`
	CycleID         string     `form:"cycle_id"`
	MemberID        string     `form:"member_id"`
	TransactionType string     `form:"transaction_type" binding:"omitempty,oneof=contribution withdrawal"`
	From            *time.Time `form:"from" time_format:"2006-01-02"`
	To              *time.Time `form:"to" time_format:"2006-01-02"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query filter to a repository filter
func (f TransactionListFilter) ToDomain() (socialfund.Filter, error) {
	var (
		filter socialfund.Filter
		err    error
	)
	if filter.GroupID, err = shared.ParseID("group_id", f.GroupID); err != nil {
		return filter, err
	}
	if filter.CycleID, err = shared.ParseOptionalID("cycle_id", f.CycleID); err != nil {
		return filter, err
	}
	if filter.MemberID, err = shared.ParseOptionalID("member_id", f.MemberID); err != nil {
		return filter, err
	}
	if f.TransactionType != "" {
		t := socialfund.TransactionType(f.TransactionType)
		filter.Type = &t
	}
	filter.From, filter.To = f.From, f.To
	return filter, nil
}

// Pagination returns the requested page
func (f TransactionListFilter) Pagination() shared.Pagination {
	return shared.Pagination{Page: f.Page, PageSize: f.PageSize}.Normalize()
}

// ToTransactionResponse converts a domain transaction to a response
func ToTransactionResponse(tx *socialfund.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		GroupID:         tx.GroupID,
		CycleID:         tx.CycleID,
		MemberID:        tx.MemberID,
		MeetingID:       tx.MeetingID,
		TransactionType: string(tx.Type),
		Amount:          tx.Amount,
		TransactionDate: tx.TransactionDate,
		Description:     tx.Description,
		Reason:          tx.Reason,
		CreatedBy:       tx.CreatedBy,
		CreatedAt:       tx.CreatedAt,
	}
}
