package ledger

import (
	"context"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter selects ledger entries. Every set field narrows the match; there is
// no implicit account hierarchy.
type Filter struct {
	GroupID     *uuid.UUID
	CycleID     *uuid.UUID
	MeetingID   *uuid.UUID
	OwnerType   *OwnerType
	MemberID    *uuid.UUID
	AccountType *AccountType
	From        *time.Time
	To          *time.Time
}

// Order selects the list ordering
type Order string

const (
	OrderOldestFirst Order = "asc"
	OrderNewestFirst Order = "desc"
)

// EntryRepository is the append-only store of ledger entries
type EntryRepository interface {
	// CreatePair inserts both entries of a linked pair atomically
	CreatePair(ctx context.Context, pair *LinkedPair) error
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindByIDForUpdate finds an entry and locks its row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindReversalOf returns the member entry that reverses id, or nil
	FindReversalOf(ctx context.Context, id uuid.UUID) (*Entry, error)
	// Sum returns the signed sum of amounts for the filter
	Sum(ctx context.Context, filter Filter) (decimal.Decimal, error)
	// SumByMember returns signed sums grouped by member_id for the filter
	SumByMember(ctx context.Context, filter Filter) (map[uuid.UUID]decimal.Decimal, error)
	List(ctx context.Context, filter Filter, order Order, page shared.Pagination) ([]Entry, int64, error)
}
