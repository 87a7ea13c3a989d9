package ledger

import (
	"context"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the append-only ledger store. Postings are always linked pairs;
// there is no update or delete path.
type Service struct {
	scope  txscope.TransactionScope
	logger *zap.Logger
}

// NewService creates a new ledger service
func NewService(scope txscope.TransactionScope, logger *zap.Logger) *Service {
	return &Service{
		scope:  scope,
		logger: logger,
	}
}

// PostLinked posts a member entry and its group-side contra in one
// transaction. The cycle must be open.
func (s *Service) PostLinked(ctx context.Context, actor shared.Actor, member, group *ledger.Entry) (*ledger.LinkedPair, error) {
	var pair *ledger.LinkedPair
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		if member != nil {
			cycle, err := repos.CycleRepo().FindByID(ctx, member.CycleID)
			if err != nil {
				return err
			}
			if err := cycle.EnsureBelongsTo(member.GroupID); err != nil {
				return err
			}
			if err := cycle.EnsureAcceptsPostings(); err != nil {
				return err
			}
		}
		var err error
		pair, err = s.PostLinkedWithTx(ctx, repos, actor, member, group)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ledger pair posted",
		zap.String("member_entry_id", pair.MemberEntry.ID.String()),
		zap.String("account_type", pair.MemberEntry.AccountType.String()),
		zap.String("amount", pair.MemberEntry.Amount.StringFixed(2)))
	return pair, nil
}

// PostLinkedWithTx validates and inserts a caller-built pair inside an
// existing unit of work
func (s *Service) PostLinkedWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, member, group *ledger.Entry) (*ledger.LinkedPair, error) {
	pair, err := ledger.PairFromEntries(member, group)
	if err != nil {
		return nil, err
	}
	for _, e := range pair.Entries() {
		if e.CreatedBy == uuid.Nil {
			e.CreatedBy = actor.UserID
		}
	}
	if err := repos.LedgerRepo().CreatePair(ctx, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// PostPairWithTx builds a pair from a spec and inserts it inside an existing
// unit of work. Callers have already checked the cycle.
func (s *Service) PostPairWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, spec ledger.PairSpec) (*ledger.LinkedPair, error) {
	if spec.CreatedBy == uuid.Nil {
		spec.CreatedBy = actor.UserID
	}
	pair, err := ledger.NewLinkedPair(spec)
	if err != nil {
		return nil, err
	}
	if err := repos.LedgerRepo().CreatePair(ctx, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Reverse posts the offsetting pair of a posted member entry. An entry is
// reversed at most once, a reversal is never itself reversed, and loan and
// social fund postings are rejected because their sub-ledgers would drift.
func (s *Service) Reverse(ctx context.Context, actor shared.Actor, entryID uuid.UUID, reason string) (*ledger.LinkedPair, error) {
	var reversal *ledger.LinkedPair
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		entry, err := repos.LedgerRepo().FindByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if !entry.IsMemberEntry() || entry.ContraEntryID == nil {
			return shared.NewValidationError("entry_id", "only the member side of a linked pair can be reversed")
		}
		existing, err := repos.LedgerRepo().FindReversalOf(ctx, entryID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.ErrEntryReversed.
				WithMessage("ledger entry %s was already reversed", entryID).
				WithDetails(map[string]any{"reversal_entry_id": existing.ID.String()})
		}
		contra, err := repos.LedgerRepo().FindByID(ctx, *entry.ContraEntryID)
		if err != nil {
			return err
		}
		cycle, err := repos.CycleRepo().FindByID(ctx, entry.CycleID)
		if err != nil {
			return err
		}
		if err := cycle.EnsureAcceptsPostings(); err != nil {
			return err
		}
		reversal, err = ledger.Reversal(entry, contra, reason, actor.UserID)
		if err != nil {
			return err
		}
		return repos.LedgerRepo().CreatePair(ctx, reversal)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ledger entry reversed",
		zap.String("entry_id", entryID.String()),
		zap.String("reversal_entry_id", reversal.MemberEntry.ID.String()),
		zap.String("actor", actor.UserID.String()))
	return reversal, nil
}

// Balance returns COALESCE(SUM(amount), 0) for exactly the filter given
func (s *Service) Balance(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error) {
	return s.scope.Repositories().LedgerRepo().Sum(ctx, filter)
}

// GroupHoldings returns what the group holds of an account in a cycle: the
// negated sum of the group-side contra entries
func (s *Service) GroupHoldings(ctx context.Context, groupID, cycleID uuid.UUID, account ledger.AccountType) (decimal.Decimal, error) {
	return GroupHoldingsWithTx(ctx, s.scope.Repositories(), groupID, cycleID, account)
}

// GroupHoldingsWithTx is GroupHoldings inside an existing unit of work
func GroupHoldingsWithTx(ctx context.Context, repos txscope.TransactionalRepositories, groupID, cycleID uuid.UUID, account ledger.AccountType) (decimal.Decimal, error) {
	if !account.IsValid() {
		return decimal.Zero, shared.NewValidationError("account_type", "unknown account type")
	}
	owner := ledger.OwnerGroup
	sum, err := repos.LedgerRepo().Sum(ctx, ledger.Filter{
		GroupID:     &groupID,
		CycleID:     &cycleID,
		OwnerType:   &owner,
		AccountType: &account,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Neg(), nil
}

// List returns a page of entries matching the filter
func (s *Service) List(ctx context.Context, filter ledger.Filter, order ledger.Order, page shared.Pagination) (shared.Paginated[EntryResponse], error) {
	page = page.Normalize()
	entries, total, err := s.scope.Repositories().LedgerRepo().List(ctx, filter, order, page)
	if err != nil {
		return shared.Paginated[EntryResponse]{}, err
	}
	items := make([]EntryResponse, len(entries))
	for i := range entries {
		items[i] = ToEntryResponse(&entries[i])
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}
