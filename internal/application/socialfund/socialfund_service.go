package socialfund

import (
	"context"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the group's social fund ledger. Withdrawals are serialized per
// group by locking the group row, so the balance guard holds for every
// (group, cycle) scope at once.
type Service struct {
	scope          txscope.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new social fund service
func NewService(scope txscope.TransactionScope, logger *zap.Logger) *Service {
	return &Service{
		scope:          scope,
		eventPublisher: shared.NoopEventPublisher{},
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Contribute records a contribution in its own transaction
func (s *Service) Contribute(ctx context.Context, actor shared.Actor, cmd MovementCommand) (*TransactionResponse, error) {
	var tx *socialfund.Transaction
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		var err error
		tx, err = s.ContributeWithTx(ctx, repos, actor, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("social fund contribution recorded",
		zap.String("group_id", tx.GroupID.String()),
		zap.String("amount", tx.Amount.StringFixed(2)))
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// ContributeWithTx records a contribution inside an existing unit of work
func (s *Service) ContributeWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, cmd MovementCommand) (*socialfund.Transaction, error) {
	if err := s.checkScope(ctx, repos, cmd, false); err != nil {
		return nil, err
	}
	tx, err := socialfund.NewContribution(cmd.movement(actor))
	if err != nil {
		return nil, err
	}
	if err := repos.SocialFundRepo().Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Withdraw records a withdrawal in its own transaction
func (s *Service) Withdraw(ctx context.Context, actor shared.Actor, cmd MovementCommand) (*TransactionResponse, error) {
	var (
		tx    *socialfund.Transaction
		event shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		var err error
		tx, event, err = s.WithdrawWithTx(ctx, repos, actor, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish social fund event", zap.Error(err))
	}
	s.logger.Info("social fund withdrawal recorded",
		zap.String("group_id", tx.GroupID.String()),
		zap.String("amount", tx.Magnitude().StringFixed(2)))
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// WithdrawWithTx records a withdrawal inside an existing unit of work. The
// returned event is for the caller to publish after its commit.
func (s *Service) WithdrawWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, cmd MovementCommand) (*socialfund.Transaction, shared.DomainEvent, error) {
	if err := s.checkScope(ctx, repos, cmd, true); err != nil {
		return nil, nil, err
	}
	balance, err := repos.SocialFundRepo().Balance(ctx, cmd.GroupID, cmd.CycleID)
	if err != nil {
		return nil, nil, err
	}
	// the group-wide running balance must stay non-negative too, so a cycle
	// withdrawal is bounded by whichever scope holds less
	available := balance
	if cmd.CycleID != nil {
		groupBalance, err := repos.SocialFundRepo().Balance(ctx, cmd.GroupID, nil)
		if err != nil {
			return nil, nil, err
		}
		available = decimal.Min(available, groupBalance)
	}
	tx, err := socialfund.NewWithdrawal(cmd.movement(actor), available)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.SocialFundRepo().Create(ctx, tx); err != nil {
		return nil, nil, err
	}
	return tx, socialfund.NewWithdrawnEvent(tx, balance.Add(tx.Amount)), nil
}

// checkScope verifies the group, the cycle and the member of a movement.
// With lock set the group row is held until the transaction ends.
func (s *Service) checkScope(ctx context.Context, repos txscope.TransactionalRepositories, cmd MovementCommand, lock bool) error {
	var err error
	if lock {
		_, err = repos.GroupRepo().FindByIDForUpdate(ctx, cmd.GroupID)
	} else {
		_, err = repos.GroupRepo().FindByID(ctx, cmd.GroupID)
	}
	if err != nil {
		return err
	}
	if cmd.CycleID != nil {
		cycle, err := repos.CycleRepo().FindByID(ctx, *cmd.CycleID)
		if err != nil {
			return err
		}
		if err := cycle.EnsureBelongsTo(cmd.GroupID); err != nil {
			return err
		}
		if err := cycle.EnsureAcceptsPostings(); err != nil {
			return err
		}
	}
	if cmd.MemberID != nil {
		member, err := repos.MemberRepo().FindByID(ctx, *cmd.MemberID)
		if err != nil {
			return err
		}
		if member.GroupID != cmd.GroupID {
			return shared.ErrMemberNotFound.WithMessage("member %s is not in group %s", member.ID, cmd.GroupID)
		}
	}
	return nil
}

// Balance returns the signed sum for the group, narrowed to a cycle when given
func (s *Service) Balance(ctx context.Context, groupID uuid.UUID, cycleID *uuid.UUID) (decimal.Decimal, error) {
	return s.scope.Repositories().SocialFundRepo().Balance(ctx, groupID, cycleID)
}

// List returns a page of social fund history
func (s *Service) List(ctx context.Context, filter socialfund.Filter, page shared.Pagination) (shared.Paginated[TransactionResponse], error) {
	page = page.Normalize()
	txs, total, err := s.scope.Repositories().SocialFundRepo().List(ctx, filter, page)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	items := make([]TransactionResponse, len(txs))
	for i := range txs {
		items[i] = ToTransactionResponse(&txs[i])
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}
