package loan

import (
	"context"
	"time"

	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statsPageSize is the page size used when statistics walk every loan of a scope
const statsPageSize = 500

// Service manages the loan lifecycle. The projected amounts of a loan are
// only ever changed by appending to its trail and re-projecting under the
// loan row lock.
type Service struct {
	scope          txscope.TransactionScope
	ledger         *ledgerapp.Service
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new loan service
func NewService(scope txscope.TransactionScope, ledgerService *ledgerapp.Service, logger *zap.Logger) *Service {
	return &Service{
		scope:          scope,
		ledger:         ledgerService,
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
		s.logger.Warn("failed to publish loan events", zap.Error(err))
	}
}

// Disburse issues a loan in its own transaction
func (s *Service) Disburse(ctx context.Context, actor shared.Actor, cmd DisburseCommand) (*LoanResponse, error) {
	var (
		issued    *loan.Loan
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		var err error
		issued, err = s.DisburseWithTx(ctx, repos, actor, cmd)
		if err != nil {
			return err
		}
		collector.Collect(issued)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("loan disbursed",
		zap.String("loan_id", issued.ID.String()),
		zap.String("borrower_id", issued.BorrowerID.String()),
		zap.String("principal", issued.LoanAmount.StringFixed(2)))
	resp := ToLoanResponse(issued, s.now())
	return &resp, nil
}

// DisburseWithTx issues a loan inside an existing unit of work. The loan, its
// opening trail and the ledger pair on the loan account are written together.
// Pending domain events are left on the returned loan.
func (s *Service) DisburseWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, cmd DisburseCommand) (*loan.Loan, error) {
	cycle, err := repos.CycleRepo().FindByID(ctx, cmd.CycleID)
	if err != nil {
		return nil, err
	}
	if err := cycle.EnsureBelongsTo(cmd.GroupID); err != nil {
		return nil, err
	}
	if err := cycle.EnsureAcceptsPostings(); err != nil {
		return nil, err
	}
	borrower, err := repos.MemberRepo().FindByID(ctx, cmd.BorrowerID)
	if err != nil {
		return nil, err
	}
	if borrower.GroupID != cycle.GroupID {
		return nil, shared.ErrMemberNotFound.WithMessage("member %s is not in group %s", borrower.ID, cycle.GroupID)
	}

	l, trail, err := loan.Disburse(loan.DisburseParams{
		GroupID:          cycle.GroupID,
		CycleID:          cycle.ID,
		MeetingID:        cmd.MeetingID,
		BorrowerID:       borrower.ID,
		Principal:        cmd.Amount,
		InterestRate:     cmd.InterestRate,
		DurationMonths:   cmd.DurationMonths,
		DisbursementDate: cmd.DisbursementDate,
		Purpose:          cmd.Purpose,
		CreatedBy:        actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.LoanRepo().Create(ctx, l); err != nil {
		return nil, err
	}
	if err := repos.LoanRepo().AppendTransactions(ctx, trail...); err != nil {
		return nil, err
	}
	// the member receives the principal, the group pays it out
	if _, err := s.ledger.PostPairWithTx(ctx, repos, actor, ledger.PairSpec{
		GroupID:      l.GroupID,
		CycleID:      l.CycleID,
		MeetingID:    cmd.MeetingID,
		MemberID:     l.BorrowerID,
		AccountType:  ledger.AccountLoan,
		MemberAmount: l.LoanAmount.Neg(),
		Description:  "loan disbursement",
		OccurredAt:   l.DisbursementDate,
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// Repay records a repayment in its own transaction
func (s *Service) Repay(ctx context.Context, actor shared.Actor, loanID uuid.UUID, cmd RepayCommand) (*RepaymentResult, error) {
	var (
		result    *RepaymentResult
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		r, l, err := s.RepayWithTx(ctx, repos, actor, loanID, cmd)
		if err != nil {
			return err
		}
		result = r
		collector.Collect(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("loan repayment recorded",
		zap.String("loan_id", loanID.String()),
		zap.String("amount", result.Amount.StringFixed(2)),
		zap.String("balance", result.Balance.StringFixed(2)),
		zap.String("status", result.Status))
	return result, nil
}

// RepayWithTx records a repayment inside an existing unit of work. The loan row
// is locked, the payment appended to the trail and the loan re-projected from
// the stored trail. An amount above the balance leaves the loan unchanged.
func (s *Service) RepayWithTx(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, loanID uuid.UUID, cmd RepayCommand) (*RepaymentResult, *loan.Loan, error) {
	l, err := s.lockProjected(ctx, repos, loanID)
	if err != nil {
		return nil, nil, err
	}
	if cmd.CycleID != nil && l.CycleID != *cmd.CycleID {
		return nil, nil, shared.ErrLoanNotFound.WithMessage("loan %s does not belong to cycle %s", loanID, *cmd.CycleID)
	}
	cycle, err := repos.CycleRepo().FindByID(ctx, l.CycleID)
	if err != nil {
		return nil, nil, err
	}
	if err := cycle.EnsureAcceptsPostings(); err != nil {
		return nil, nil, err
	}

	paymentDate := cmd.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	tx, err := l.Repay(loan.RepayParams{
		Amount:        cmd.Amount,
		PaymentMethod: cmd.PaymentMethod,
		PaymentDate:   paymentDate,
		MeetingID:     cmd.MeetingID,
		CreatedBy:     actor.UserID,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.appendAndProject(ctx, repos, l, tx); err != nil {
		return nil, nil, err
	}
	if _, err := s.ledger.PostPairWithTx(ctx, repos, actor, ledger.PairSpec{
		GroupID:      l.GroupID,
		CycleID:      l.CycleID,
		MeetingID:    cmd.MeetingID,
		MemberID:     l.BorrowerID,
		AccountType:  ledger.AccountLoan,
		MemberAmount: tx.Amount,
		Description:  "loan repayment",
		OccurredAt:   paymentDate,
	}); err != nil {
		return nil, nil, err
	}
	return &RepaymentResult{
		LoanID:        l.ID,
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Balance:       l.Balance,
		AmountPaid:    l.AmountPaid,
		Status:        string(l.Status),
	}, l, nil
}

// ApplyPenalty charges a penalty on an unpaid loan
func (s *Service) ApplyPenalty(ctx context.Context, actor shared.Actor, loanID uuid.UUID, cmd AdjustCommand) (*LoanResponse, error) {
	return s.adjust(ctx, loanID, func(l *loan.Loan) (*loan.Transaction, error) {
		return l.ApplyPenalty(cmd.Amount, cmd.Reason, s.dateOrToday(cmd.Date), actor.UserID)
	})
}

// Waive forgives part of a loan's outstanding balance
func (s *Service) Waive(ctx context.Context, actor shared.Actor, loanID uuid.UUID, cmd AdjustCommand) (*LoanResponse, error) {
	return s.adjust(ctx, loanID, func(l *loan.Loan) (*loan.Transaction, error) {
		return l.Waive(cmd.Amount, cmd.Reason, s.dateOrToday(cmd.Date), actor.UserID)
	})
}

func (s *Service) adjust(ctx context.Context, loanID uuid.UUID, apply func(l *loan.Loan) (*loan.Transaction, error)) (*LoanResponse, error) {
	var (
		adjusted  *loan.Loan
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		l, err := s.lockProjected(ctx, repos, loanID)
		if err != nil {
			return err
		}
		tx, err := apply(l)
		if err != nil {
			return err
		}
		if err := s.appendAndProject(ctx, repos, l, tx); err != nil {
			return err
		}
		adjusted = l
		collector.Collect(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Info("loan adjusted",
		zap.String("loan_id", loanID.String()),
		zap.String("balance", adjusted.Balance.StringFixed(2)))
	resp := ToLoanResponse(adjusted, s.now())
	return &resp, nil
}

// MarkDefaulted moves an active loan with an outstanding balance to defaulted.
// Repayments are still accepted afterwards.
func (s *Service) MarkDefaulted(ctx context.Context, actor shared.Actor, loanID uuid.UUID) (*LoanResponse, error) {
	var (
		defaulted *loan.Loan
		collector shared.EventCollector
	)
	err := s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		l, err := s.lockProjected(ctx, repos, loanID)
		if err != nil {
			return err
		}
		if err := l.MarkDefaulted(); err != nil {
			return err
		}
		if err := repos.LoanRepo().Save(ctx, l); err != nil {
			return err
		}
		defaulted = l
		collector.Collect(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, collector.Events())
	s.logger.Warn("loan marked defaulted",
		zap.String("loan_id", loanID.String()),
		zap.String("actor", actor.UserID.String()),
		zap.String("balance", defaulted.Balance.StringFixed(2)))
	resp := ToLoanResponse(defaulted, s.now())
	return &resp, nil
}

// lockProjected locks the loan row and re-projects it from the stored trail
func (s *Service) lockProjected(ctx context.Context, repos txscope.TransactionalRepositories, loanID uuid.UUID) (*loan.Loan, error) {
	l, err := repos.LoanRepo().FindByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, err
	}
	totals, err := repos.LoanRepo().TrailTotals(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Project(totals)
	return l, nil
}

// appendAndProject stores a new trail entry and saves the projection of the
// full stored trail
func (s *Service) appendAndProject(ctx context.Context, repos txscope.TransactionalRepositories, l *loan.Loan, tx *loan.Transaction) error {
	if err := repos.LoanRepo().AppendTransactions(ctx, *tx); err != nil {
		return err
	}
	totals, err := repos.LoanRepo().TrailTotals(ctx, l.ID)
	if err != nil {
		return err
	}
	l.Project(totals)
	return repos.LoanRepo().Save(ctx, l)
}

func (s *Service) dateOrToday(d time.Time) time.Time {
	if d.IsZero() {
		return s.now()
	}
	return d
}

// Get returns a loan with its transaction trail
func (s *Service) Get(ctx context.Context, loanID uuid.UUID) (*LoanResponse, error) {
	repos := s.scope.Repositories()
	l, err := repos.LoanRepo().FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	trail, err := repos.LoanRepo().ListTransactions(ctx, loanID)
	if err != nil {
		return nil, err
	}
	resp := ToLoanResponse(l, s.now())
	resp.Transactions = make([]TransactionResponse, len(trail))
	for i := range trail {
		resp.Transactions[i] = ToTransactionResponse(&trail[i])
	}
	return &resp, nil
}

// List returns a page of loans
func (s *Service) List(ctx context.Context, filter loan.Filter, page shared.Pagination) (shared.Paginated[LoanResponse], error) {
	page = page.Normalize()
	loans, total, err := s.scope.Repositories().LoanRepo().List(ctx, filter, page)
	if err != nil {
		return shared.Paginated[LoanResponse]{}, err
	}
	today := s.now()
	items := make([]LoanResponse, len(loans))
	for i := range loans {
		items[i] = ToLoanResponse(&loans[i], today)
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}

// Statistics summarizes every loan in the scope
func (s *Service) Statistics(ctx context.Context, scope Scope) (*loan.Statistics, error) {
	filter := loan.Filter{GroupID: scope.GroupID, CycleID: scope.CycleID, BorrowerID: scope.MemberID}
	var all []loan.Loan
	for page := 1; ; page++ {
		loans, total, err := s.scope.Repositories().LoanRepo().List(ctx, filter, shared.Pagination{Page: page, PageSize: statsPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, loans...)
		if len(loans) == 0 || int64(len(all)) >= total {
			break
		}
	}
	stats := loan.Summarize(all, s.now())
	return &stats, nil
}
