package ledger

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	GroupID       uuid.UUID       `json:"group_id"`
	CycleID       uuid.UUID       `json:"cycle_id"`
	MeetingID     *uuid.UUID      `json:"meeting_id,omitempty"`
	OwnerType     string          `json:"owner_type"`
	MemberID      *uuid.UUID      `json:"member_id,omitempty"`
	AccountType   string          `json:"account_type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	ContraEntryID *uuid.UUID      `json:"contra_entry_id,omitempty"`
	IsContraEntry bool            `json:"is_contra_entry"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PairResponse is a posted member entry with its group-side contra
type PairResponse struct {
	MemberEntry EntryResponse `json:"member_entry"`
	GroupEntry  EntryResponse `json:"group_entry"`
}

// BalanceResponse is the signed sum of the entries matching a filter
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// HoldingsResponse is what the group holds of one account in a cycle
type HoldingsResponse struct {
	GroupID     uuid.UUID       `json:"group_id"`
	CycleID     uuid.UUID       `json:"cycle_id"`
	AccountType string          `json:"account_type"`
	Holdings    decimal.Decimal `json:"holdings"`
}

// HoldingsQuery selects the account of GET /ledger/holdings
type HoldingsQuery struct {
	GroupID     string `form:"group_id" binding:"required"`
	CycleID     string `form:"cycle_id" binding:"required"`
	AccountType string `form:"account_type" binding:"required,oneof=savings share loan fine welfare social_fund"`
}

// Parse returns the ids and account of the query
func (q HoldingsQuery) Parse() (uuid.UUID, uuid.UUID, ledger.AccountType, error) {
	groupID, err := shared.ParseID("group_id", q.GroupID)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", err
	}
	cycleID, err := shared.ParseID("cycle_id", q.CycleID)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", err
	}
	return groupID, cycleID, ledger.AccountType(q.AccountType), nil
}

// EntryListFilter represents filter options for ledger queries
type EntryListFilter struct {
	GroupID     string     `form:"group_id"`
	CycleID     string     `form:"cycle_id"`
	MeetingID   string     `form:"meeting_id"`
	OwnerType   string     `form:"owner_type" binding:"omitempty,oneof=group member"`
	MemberID    string     `form:"member_id"`
	AccountType string     `form:"account_type" binding:"omitempty,oneof=savings share loan fine welfare social_fund"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query filter to a repository filter
func (f EntryListFilter) ToDomain() (ledger.Filter, error) {
	var (
		filter ledger.Filter
		err    error
	)
	if filter.GroupID, err = shared.ParseOptionalID("group_id", f.GroupID); err != nil {
		return filter, err
	}
	if filter.CycleID, err = shared.ParseOptionalID("cycle_id", f.CycleID); err != nil {
		return filter, err
	}
	if filter.MeetingID, err = shared.ParseOptionalID("meeting_id", f.MeetingID); err != nil {
		return filter, err
	}
	if filter.MemberID, err = shared.ParseOptionalID("member_id", f.MemberID); err != nil {
		return filter, err
	}
	if filter.GroupID == nil && filter.CycleID == nil {
		return filter, shared.NewValidationError("group_id", "group_id or cycle_id is required")
	}
	filter.From, filter.To = f.From, f.To
	if f.OwnerType != "" {
		owner := ledger.OwnerType(f.OwnerType)
		filter.OwnerType = &owner
	}
	if f.AccountType != "" {
		account := ledger.AccountType(f.AccountType)
		filter.AccountType = &account
	}
	return filter, nil
}

// Pagination returns the requested page
func (f EntryListFilter) Pagination() shared.Pagination {
	return shared.Pagination{Page: f.Page, PageSize: f.PageSize}.Normalize()
}

// Order returns the requested list ordering, oldest first by default
func (f EntryListFilter) Order() ledger.Order {
	if f.OrderDir == string(ledger.OrderNewestFirst) {
		return ledger.OrderNewestFirst
	}
	return ledger.OrderOldestFirst
}

// ReverseRequest asks for an offsetting pair
type ReverseRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ToEntryResponse converts a domain entry to a response
func ToEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		CycleID:       e.CycleID,
		MeetingID:     e.MeetingID,
		OwnerType:     string(e.OwnerType),
		MemberID:      e.MemberID,
		AccountType:   string(e.AccountType),
		Amount:        e.Amount,
		Description:   e.Description,
		OccurredAt:    e.OccurredAt,
		ContraEntryID: e.ContraEntryID,
		IsContraEntry: e.IsContraEntry,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

// ToPairResponse converts a linked pair to a response
func ToPairResponse(p *ledger.LinkedPair) *PairResponse {
	return &PairResponse{
		MemberEntry: ToEntryResponse(p.MemberEntry),
		GroupEntry:  ToEntryResponse(p.GroupEntry),
	}
}
