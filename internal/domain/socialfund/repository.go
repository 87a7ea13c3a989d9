package socialfund

import (
	"context"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter selects social fund transactions
type Filter struct {
	GroupID  uuid.UUID
	CycleID  *uuid.UUID
	MemberID *uuid.UUID
	Type     *TransactionType
	From     *time.Time
	To       *time.Time
}

// Repository stores social fund transactions
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	// Balance is the signed sum for the group, narrowed to a cycle when given
	Balance(ctx context.Context, groupID uuid.UUID, cycleID *uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]Transaction, int64, error)
}
