package shareout

import (
	"context"
	"errors"
	"time"

	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sharePlaces is the precision of member share counts derived from money
const sharePlaces int32 = 4

// Service drives the end-of-cycle shareout workflow:
// draft → calculated → approved → processing → completed.
type Service struct {
	scope          txscope.TransactionScope
	policy         shareout.Policy
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new shareout service
func NewService(scope txscope.TransactionScope, policy shareout.Policy, logger *zap.Logger) *Service {
	return &Service{
		scope:          scope,
		policy:         policy,
		eventPublisher: shared.NoopEventPublisher{},
		logger:         logger,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish shareout events", zap.Error(err))
	}
}

// EligibleCycles lists the group's open cycles together with the shareout
// each one already has in progress
func (s *Service) EligibleCycles(ctx context.Context, groupID uuid.UUID) ([]EligibleCycleResponse, error) {
	repos := s.scope.Repositories()
	if _, err := repos.GroupRepo().FindByID(ctx, groupID); err != nil {
		return nil, err
	}
	cycles, err := repos.CycleRepo().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]EligibleCycleResponse, 0, len(cycles))
	for i := range cycles {
		c := &cycles[i]
		if !c.IsOpen() || !c.IsSavingsAssociation() {
			continue
		}
		item := EligibleCycleResponse{
			CycleID:        c.ID,
			GroupID:        c.GroupID,
			Name:           c.Name,
			StartDate:      c.StartDate,
			EndDate:        c.EndDate,
			ShareUnitValue: c.ShareUnitValue,
			SavingType:     string(c.SavingType),
		}
		live, err := repos.ShareoutRepo().FindLiveByCycle(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if live != nil {
			resp := ToShareoutResponse(live)
			item.LiveShareout = &resp
		}
		out = append(out, item)
	}
	return out, nil
}

// Initiate starts a draft shareout for an open cycle. The cycle row lock
// keeps a cycle to one live shareout.
func (s *Service) Initiate(ctx context.Context, actor shared.Actor, cycleID uuid.UUID) (*ShareoutResponse, error) {
	var (
		created   *shareout.Shareout
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		cycle, err := repos.CycleRepo().FindByIDForUpdate(ctx, cycleID)
		if err != nil {
			return err
		}
		if err := cycle.EnsureAcceptsPostings(); err != nil {
			return err
		}
		live, err := repos.ShareoutRepo().FindLiveByCycle(ctx, cycle.ID)
		if err != nil {
			return err
		}
		if live != nil {
			return shared.ErrShareoutExists.
				WithMessage("cycle %s already has shareout %s in status %s", cycle.ID, live.ID, live.Status).
				WithDetails(map[string]any{"shareout_id": live.ID.String(), "status": string(live.Status)})
		}
		so, err := shareout.NewShareout(cycle.GroupID, cycle.ID, cycle.ShareUnitValue, actor.UserID)
		if err != nil {
			return err
		}
		if err := repos.ShareoutRepo().Create(ctx, so); err != nil {
			return err
		}
		collector.Collect(so)
		created = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("shareout initiated",
		zap.String("shareout_id", created.ID.String()),
		zap.String("cycle_id", cycleID.String()),
		zap.String("actor", actor.UserID.String()))
	resp := ToShareoutResponse(created)
	return &resp, nil
}

// Calculate computes the distributions of a draft or calculated shareout.
// Earlier distributions are replaced in the same transaction.
func (s *Service) Calculate(ctx context.Context, actor shared.Actor, shareoutID uuid.UUID) (*ShareoutResponse, error) {
	var (
		calculated *shareout.Shareout
		collector  shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		so, err := repos.ShareoutRepo().FindByIDForUpdate(ctx, shareoutID)
		if err != nil {
			return err
		}
		if err := so.EnsureCalculable(); err != nil {
			return err
		}
		cycle, err := repos.CycleRepo().FindByID(ctx, so.CycleID)
		if err != nil {
			return err
		}
		in, err := s.inputs(ctx, repos, so, cycle)
		if err != nil {
			return err
		}
		result := shareout.Calculate(so.ID, in, s.policy)
		if err := so.ApplyCalculation(result); err != nil {
			return err
		}
		if err := repos.ShareoutRepo().ReplaceDistributions(ctx, so.ID, result.Distributions); err != nil {
			return err
		}
		if err := repos.ShareoutRepo().Save(ctx, so); err != nil {
			return err
		}
		collector.Collect(so)
		calculated = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("shareout calculated",
		zap.String("shareout_id", shareoutID.String()),
		zap.Int("calculation", calculated.CalculationCount),
		zap.String("distributable_fund", calculated.DistributableFund.StringFixed(2)),
		zap.String("total_payout", calculated.TotalActualPayout.StringFixed(2)),
		zap.Int("members", calculated.TotalMembers),
		zap.String("actor", actor.UserID.String()))
	resp := ToShareoutResponse(calculated)
	return &resp, nil
}

// Recalculate recomputes the distributions from the current ledger and loans
func (s *Service) Recalculate(ctx context.Context, actor shared.Actor, shareoutID uuid.UUID) (*ShareoutResponse, error) {
	return s.Calculate(ctx, actor, shareoutID)
}

// inputs gathers the cycle figures. The fund is what the group holds of
// savings, shares and fines plus the interest collected on loans.
func (s *Service) inputs(ctx context.Context, repos txscope.TransactionalRepositories, so *shareout.Shareout, cycle *group.Cycle) (shareout.Inputs, error) {
	var in shareout.Inputs
	if !so.ShareUnitValue.IsPositive() {
		return in, shared.NewValidationError("share_unit_value", "share unit value must be positive")
	}
	holdings := make(map[ledger.AccountType]decimal.Decimal, 3)
	for _, account := range []ledger.AccountType{ledger.AccountSavings, ledger.AccountShare, ledger.AccountFine} {
		h, err := ledgerapp.GroupHoldingsWithTx(ctx, repos, so.GroupID, so.CycleID, account)
		if err != nil {
			return in, err
		}
		holdings[account] = h
	}
	loans, err := repos.LoanRepo().ListByCycle(ctx, so.CycleID)
	if err != nil {
		return in, err
	}
	stats := loan.Summarize(loans, s.now())

	in.TotalSavings = holdings[ledger.AccountSavings]
	in.TotalShareValue = holdings[ledger.AccountShare]
	in.FinesCollected = holdings[ledger.AccountFine]
	in.LoanInterestEarned = stats.InterestEarned

	savings, err := s.memberSums(ctx, repos, so, ledger.AccountSavings)
	if err != nil {
		return in, err
	}
	shareValues, err := s.memberSums(ctx, repos, so, ledger.AccountShare)
	if err != nil {
		return in, err
	}
	type owed struct{ principal, interest decimal.Decimal }
	outstanding := make(map[uuid.UUID]owed)
	for i := range loans {
		l := &loans[i]
		if !l.Balance.IsPositive() || (l.Status != loan.StatusActive && l.Status != loan.StatusDefaulted) {
			continue
		}
		alloc := l.Allocate()
		o := outstanding[l.BorrowerID]
		o.principal = o.principal.Add(alloc.OutstandingPrincipal)
		o.interest = o.interest.Add(alloc.OutstandingInterest)
		outstanding[l.BorrowerID] = o
	}

	members, err := repos.MemberRepo().FindByGroup(ctx, so.GroupID)
	if err != nil {
		return in, err
	}
	for _, m := range members {
		saved := savings[m.ID]
		value := shareValues[m.ID]
		o, owes := outstanding[m.ID]
		if !m.IsActive() && saved.IsZero() && value.IsZero() && !owes {
			continue
		}
		weighted := value
		if cycle.SavingType == group.SavingTypeFreeAmount {
			weighted = saved.Add(value)
		}
		in.Members = append(in.Members, shareout.MemberPosition{
			MemberID:             m.ID,
			Name:                 m.Name,
			Shares:               weighted.Div(so.ShareUnitValue).Round(sharePlaces),
			Savings:              saved,
			OutstandingPrincipal: shared.RoundMoney(o.principal),
			OutstandingInterest:  shared.RoundMoney(o.interest),
		})
	}
	return in, nil
}

func (s *Service) memberSums(ctx context.Context, repos txscope.TransactionalRepositories, so *shareout.Shareout, account ledger.AccountType) (map[uuid.UUID]decimal.Decimal, error) {
	owner := ledger.OwnerMember
	return repos.LedgerRepo().SumByMember(ctx, ledger.Filter{
		GroupID:     &so.GroupID,
		CycleID:     &so.CycleID,
		OwnerType:   &owner,
		AccountType: &account,
	})
}

// ensureCurrent recomputes the shareout from the cycle as it stands and
// rejects it when postings since the last calculation would change a payout
func (s *Service) ensureCurrent(ctx context.Context, repos txscope.TransactionalRepositories, so *shareout.Shareout, cycle *group.Cycle) error {
	in, err := s.inputs(ctx, repos, so, cycle)
	if err != nil {
		return err
	}
	stored, err := repos.ShareoutRepo().ListDistributions(ctx, so.ID)
	if err != nil {
		return err
	}
	return so.EnsureCurrent(stored, shareout.Calculate(so.ID, in, s.policy))
}

// Approve records the approval of a calculated shareout. Only platform
// admins and active office holders of the group may approve.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, shareoutID uuid.UUID) (*ShareoutResponse, error) {
	var (
		approved  *shareout.Shareout
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		so, err := repos.ShareoutRepo().FindByIDForUpdate(ctx, shareoutID)
		if err != nil {
			return err
		}
		if err := s.authorizeApproval(ctx, repos, actor, so.GroupID); err != nil {
			return err
		}
		if err := so.Approve(actor.UserID); err != nil {
			return err
		}
		cycle, err := repos.CycleRepo().FindByID(ctx, so.CycleID)
		if err != nil {
			return err
		}
		if err := s.ensureCurrent(ctx, repos, so, cycle); err != nil {
			return err
		}
		if err := repos.ShareoutRepo().Save(ctx, so); err != nil {
			return err
		}
		collector.Collect(so)
		approved = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("shareout approved",
		zap.String("shareout_id", shareoutID.String()),
		zap.String("approved_by", actor.UserID.String()))
	resp := ToShareoutResponse(approved)
	return &resp, nil
}

func (s *Service) authorizeApproval(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, groupID uuid.UUID) error {
	if actor.IsPlatformAdmin() {
		return nil
	}
	forbidden := shared.ErrForbidden.WithMessage("only group office holders or platform admins can approve a shareout")
	if actor.IsAnonymous() {
		return forbidden
	}
	m, err := repos.MemberRepo().FindByGroupAndUser(ctx, groupID, actor.UserID)
	if errors.Is(err, shared.ErrMemberNotFound) {
		return forbidden
	}
	if err != nil {
		return err
	}
	if !m.IsActive() || !m.Role.IsAdmin() {
		return forbidden
	}
	return nil
}

// Complete pays out an approved shareout and closes its cycle. Positive
// payouts are marked paid; the others are deferred. A shareout whose cycle
// moved since it was calculated is refused with ErrShareoutStale and has to
// be cancelled and calculated again.
func (s *Service) Complete(ctx context.Context, actor shared.Actor, shareoutID uuid.UUID) (*ShareoutResponse, error) {
	var (
		completed *shareout.Shareout
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		so, err := repos.ShareoutRepo().FindByIDForUpdate(ctx, shareoutID)
		if err != nil {
			return err
		}
		// the cycle lock keeps meetings from posting while the payout is checked
		cycle, err := repos.CycleRepo().FindByIDForUpdate(ctx, so.CycleID)
		if err != nil {
			return err
		}
		if err := so.StartProcessing(); err != nil {
			return err
		}
		if err := s.ensureCurrent(ctx, repos, so, cycle); err != nil {
			return err
		}
		ds, err := repos.ShareoutRepo().ListDistributions(ctx, so.ID)
		if err != nil {
			return err
		}
		now := s.now()
		for i := range ds {
			ds[i].Settle(now)
		}
		if err := repos.ShareoutRepo().SaveDistributions(ctx, ds); err != nil {
			return err
		}
		if err := so.Complete(); err != nil {
			return err
		}
		if err := repos.ShareoutRepo().Save(ctx, so); err != nil {
			return err
		}
		if err := cycle.Close(now); err != nil {
			return err
		}
		if err := repos.CycleRepo().Save(ctx, cycle); err != nil {
			return err
		}
		collector.Collect(so, cycle)
		completed = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("shareout completed",
		zap.String("shareout_id", shareoutID.String()),
		zap.String("cycle_id", completed.CycleID.String()),
		zap.String("total_payout", completed.TotalActualPayout.StringFixed(2)),
		zap.String("actor", actor.UserID.String()))
	resp := ToShareoutResponse(completed)
	return &resp, nil
}

// Cancel ends a shareout that has not started paying out. The cycle and its
// loans are left as they are.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, shareoutID uuid.UUID, reason string) (*ShareoutResponse, error) {
	var (
		cancelled *shareout.Shareout
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		so, err := repos.ShareoutRepo().FindByIDForUpdate(ctx, shareoutID)
		if err != nil {
			return err
		}
		if err := so.Cancel(reason); err != nil {
			return err
		}
		if err := repos.ShareoutRepo().Save(ctx, so); err != nil {
			return err
		}
		collector.Collect(so)
		cancelled = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("shareout cancelled",
		zap.String("shareout_id", shareoutID.String()),
		zap.String("reason", cancelled.CancelReason),
		zap.String("actor", actor.UserID.String()))
	resp := ToShareoutResponse(cancelled)
	return &resp, nil
}

// Get returns a shareout by ID
func (s *Service) Get(ctx context.Context, shareoutID uuid.UUID) (*ShareoutResponse, error) {
	so, err := s.scope.Repositories().ShareoutRepo().FindByID(ctx, shareoutID)
	if err != nil {
		return nil, err
	}
	resp := ToShareoutResponse(so)
	return &resp, nil
}

// History returns a page of shareouts, newest first
func (s *Service) History(ctx context.Context, filter shareout.Filter, page shared.Pagination) (shared.Paginated[ShareoutResponse], error) {
	page = page.Normalize()
	rows, total, err := s.scope.Repositories().ShareoutRepo().List(ctx, filter, page)
	if err != nil {
		return shared.Paginated[ShareoutResponse]{}, err
	}
	items := make([]ShareoutResponse, len(rows))
	for i := range rows {
		items[i] = ToShareoutResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}

// Distributions returns the member lines of a shareout
func (s *Service) Distributions(ctx context.Context, shareoutID uuid.UUID) ([]DistributionResponse, error) {
	repos := s.scope.Repositories()
	if _, err := repos.ShareoutRepo().FindByID(ctx, shareoutID); err != nil {
		return nil, err
	}
	ds, err := repos.ShareoutRepo().ListDistributions(ctx, shareoutID)
	if err != nil {
		return nil, err
	}
	out := make([]DistributionResponse, len(ds))
	for i := range ds {
		out[i] = ToDistributionResponse(&ds[i])
	}
	return out, nil
}

// Summary returns the payout summary of a shareout
func (s *Service) Summary(ctx context.Context, shareoutID uuid.UUID) (*shareout.Summary, error) {
	repos := s.scope.Repositories()
	so, err := repos.ShareoutRepo().FindByID(ctx, shareoutID)
	if err != nil {
		return nil, err
	}
	ds, err := repos.ShareoutRepo().ListDistributions(ctx, shareoutID)
	if err != nil {
		return nil, err
	}
	summary := shareout.Summarize(so, ds)
	return &summary, nil
}
