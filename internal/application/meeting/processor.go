package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	loanapp "github.com/farmsupport/vsla/internal/application/loan"
	socialfundapp "github.com/farmsupport/vsla/internal/application/socialfund"
	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultProcessingTimeout bounds one processing run when none is configured
const DefaultProcessingTimeout = 2 * time.Minute

// Processor posts the money items of a meeting batch. A run is one database
// transaction holding the meeting row lock; every item runs in its own
// savepoint so a rejected item is recorded and the rest of the batch goes on.
type Processor struct {
	scope          txscope.TransactionScope
	ledger         *ledgerapp.Service
	loans          *loanapp.Service
	socialFund     *socialfundapp.Service
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	timeout        time.Duration
}

// NewProcessor creates a new meeting processor
func NewProcessor(
	scope txscope.TransactionScope,
	ledgerService *ledgerapp.Service,
	loanService *loanapp.Service,
	socialFundService *socialfundapp.Service,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		scope:          scope,
		ledger:         ledgerService,
		loans:          loanService,
		socialFund:     socialFundService,
		eventPublisher: shared.NoopEventPublisher{},
		logger:         logger,
		timeout:        DefaultProcessingTimeout,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (p *Processor) SetEventPublisher(publisher shared.EventPublisher) {
	p.eventPublisher = publisher
}

// SetTimeout sets the upper bound of one processing run
func (p *Processor) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		p.timeout = timeout
	}
}

// Process runs a pending meeting
func (p *Processor) Process(ctx context.Context, actor shared.Actor, meetingID uuid.UUID) (*meeting.Outcome, error) {
	return p.run(ctx, actor, meetingID, false)
}

// Reprocess re-drives a failed or needs_review meeting. Items that committed
// in an earlier run are skipped.
func (p *Processor) Reprocess(ctx context.Context, actor shared.Actor, meetingID uuid.UUID) (*meeting.Outcome, error) {
	m, err := p.scope.Repositories().MeetingRepo().FindByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := m.EnsureReprocessable(); err != nil {
		return nil, err
	}
	return p.run(ctx, actor, meetingID, true)
}

// itemResult is what a committed item adds to its meeting
type itemResult struct {
	totals   meeting.Totals
	events   []shared.DomainEvent
	warnings []meeting.Issue
}

func (p *Processor) run(ctx context.Context, actor shared.Actor, meetingID uuid.UUID, reprocess bool) (*meeting.Outcome, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	var (
		processed *meeting.Meeting
		collector shared.EventCollector
		started   bool
	)
	err := p.scope.Execute(runCtx, func(repos txscope.TransactionalRepositories) error {
		collector.Reset()
		started = false
		m, err := repos.MeetingRepo().FindByIDForUpdate(runCtx, meetingID)
		if err != nil {
			return err
		}
		if reprocess {
			if err := m.EnsureReprocessable(); err != nil {
				return err
			}
		}
		if err := m.StartProcessing(); err != nil {
			return err
		}
		started = true
		if err := p.post(runCtx, repos, actor, m, &collector); err != nil {
			return err
		}
		if err := repos.MeetingRepo().Save(runCtx, m); err != nil {
			return err
		}
		collector.Collect(m)
		processed = m
		return nil
	})
	if err != nil {
		// a rejection of the meeting itself leaves it as it was; anything
		// else, a lock or storage timeout included, must not strand it
		var domainErr *shared.DomainError
		if !started && errors.As(err, &domainErr) {
			return nil, err
		}
		return p.fail(ctx, meetingID, err)
	}

	if err := p.eventPublisher.Publish(ctx, collector.Events()...); err != nil {
		p.logger.Warn("failed to publish meeting events",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err))
	}
	p.logger.Info("meeting processed",
		zap.Stringer("meeting", processed),
		zap.String("status", string(processed.ProcessingStatus)),
		zap.Int("attempt", processed.ProcessingAttempts),
		zap.Int("errors", len(processed.Errors)),
		zap.Int("warnings", len(processed.Warnings)))
	return meeting.OutcomeOf(processed, false), nil
}

// fail records a structural failure in a transaction of its own. The batch
// work was rolled back with the processing transaction.
func (p *Processor) fail(ctx context.Context, meetingID uuid.UUID, cause error) (*meeting.Outcome, error) {
	p.logger.Error("meeting processing failed",
		zap.String("meeting_id", meetingID.String()),
		zap.Error(cause))

	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	var failed *meeting.Meeting
	err := p.scope.Execute(failCtx, func(repos txscope.TransactionalRepositories) error {
		m, err := repos.MeetingRepo().FindByIDForUpdate(failCtx, meetingID)
		if err != nil {
			return err
		}
		failed = m
		if m.ProcessingStatus == meeting.StatusCompleted {
			// another run finished it while this one waited
			return nil
		}
		m.Fail(cause.Error())
		return repos.MeetingRepo().Save(failCtx, m)
	})
	procErr := shared.ErrProcessingFailed.
		WithMessage("processing of meeting %s failed: %v", meetingID, cause).
		WithDetails(map[string]any{"meeting_id": meetingID.String()})
	if err != nil {
		p.logger.Error("failed to record meeting failure",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err))
		return nil, procErr
	}
	return meeting.OutcomeOf(failed, false), procErr
}

// post applies attendance and every unposted item of the batch to the
// meeting. A returned error is structural and aborts the whole run.
func (p *Processor) post(ctx context.Context, repos txscope.TransactionalRepositories, actor shared.Actor, m *meeting.Meeting, collector *shared.EventCollector) error {
	var batch meeting.Batch
	if err := json.Unmarshal(m.RawBatchPayload, &batch); err != nil {
		return fmt.Errorf("decode stored batch: %w", err)
	}
	cycle, err := repos.CycleRepo().FindByIDForUpdate(ctx, m.CycleID)
	if err != nil {
		return err
	}
	if err := cycle.EnsureAcceptsPostings(); err != nil {
		return err
	}
	members, err := repos.MemberRepo().FindByGroup(ctx, m.GroupID)
	if err != nil {
		return err
	}
	roster := make(map[uuid.UUID]bool, len(members))
	for _, mem := range members {
		roster[mem.ID] = true
	}

	var errs, warnings []meeting.Issue
	attendanceWarnings, err := p.recordAttendance(ctx, repos, m, &batch, roster)
	if err != nil {
		return err
	}
	warnings = append(warnings, attendanceWarnings...)

	for _, item := range batch.Items() {
		key := item.Key()
		if m.IsPosted(key) {
			continue
		}
		var res itemResult
		err := repos.Nested(ctx, func(nested txscope.TransactionalRepositories) error {
			var err error
			res, err = p.postItem(ctx, nested, actor, m, cycle, roster, item)
			return err
		})
		if err != nil {
			issue, ok := issueFor(item, err)
			if !ok {
				return fmt.Errorf("%s item %d: %w", item.Kind, item.Index, err)
			}
			if isAdvisory(item.Kind) {
				warnings = append(warnings, issue)
			} else {
				errs = append(errs, issue)
			}
			continue
		}
		m.MarkPosted(key)
		m.Totals = m.Totals.Add(res.totals)
		collector.Add(res.events...)
		warnings = append(warnings, res.warnings...)
	}

	warnings = append(warnings, m.Totals.Compare(batch.ClientTotals)...)
	return m.Finish(errs, warnings)
}

// recordAttendance replaces the meeting's attendance rows. Members outside
// the group are dropped with a warning.
func (p *Processor) recordAttendance(ctx context.Context, repos txscope.TransactionalRepositories, m *meeting.Meeting, batch *meeting.Batch, roster map[uuid.UUID]bool) ([]meeting.Issue, error) {
	var warnings []meeting.Issue
	known := make([]meeting.AttendanceRecord, 0, len(batch.Attendance))
	for i, r := range batch.Attendance {
		if !roster[r.MemberID] {
			warnings = append(warnings, meeting.Issue{
				Item:    "attendance",
				Index:   i,
				Code:    meeting.CodeUnknownMember,
				Message: fmt.Sprintf("member %s is not in the group", r.MemberID),
			})
			continue
		}
		known = append(known, r)
	}
	rows, present, absent := meeting.AttendanceFrom(m.ID, known)
	if err := repos.MeetingRepo().ReplaceAttendance(ctx, m.ID, rows); err != nil {
		return nil, err
	}
	if batch.MembersPresent != present {
		warnings = append(warnings, meeting.Issue{
			Item:    "attendance",
			Index:   -1,
			Code:    meeting.CodeAttendanceMismatch,
			Message: fmt.Sprintf("members_present declared %d, recorded %d", batch.MembersPresent, present),
		})
	}
	if batch.MembersAbsent != nil && *batch.MembersAbsent != absent {
		warnings = append(warnings, meeting.Issue{
			Item:    "attendance",
			Index:   -1,
			Code:    meeting.CodeAttendanceMismatch,
			Message: fmt.Sprintf("members_absent declared %d, recorded %d", *batch.MembersAbsent, absent),
		})
	}
	m.MembersPresent = present
	m.MembersAbsent = absent
	return warnings, nil
}

func (p *Processor) postItem(
	ctx context.Context,
	repos txscope.TransactionalRepositories,
	actor shared.Actor,
	m *meeting.Meeting,
	cycle *group.Cycle,
	roster map[uuid.UUID]bool,
	item meeting.Item,
) (itemResult, error) {
	res := itemResult{totals: meeting.ZeroTotals()}
	meetingID := m.ID

	switch {
	case item.Transaction != nil:
		r := item.Transaction
		if err := requireMember(roster, r.MemberID); err != nil {
			return res, err
		}
		if _, err := p.ledger.PostPairWithTx(ctx, repos, actor, ledger.PairSpec{
			GroupID:      m.GroupID,
			CycleID:      m.CycleID,
			MeetingID:    &meetingID,
			MemberID:     r.MemberID,
			AccountType:  r.AccountType,
			MemberAmount: r.Amount,
			Description:  r.Description,
			OccurredAt:   m.MeetingDate,
		}); err != nil {
			return res, err
		}
		amount := shared.RoundMoney(r.Amount)
		switch r.AccountType {
		case ledger.AccountSavings:
			res.totals.Savings = amount
		case ledger.AccountShare:
			res.totals.SharesValue = amount
		case ledger.AccountFine:
			res.totals.Fines = amount
		case ledger.AccountWelfare:
			res.totals.Welfare = amount
		case ledger.AccountSocialFund:
			memberID := r.MemberID
			if _, err := p.socialFund.ContributeWithTx(ctx, repos, actor, socialfundapp.MovementCommand{
				GroupID:     m.GroupID,
				CycleID:     &m.CycleID,
				MemberID:    &memberID,
				MeetingID:   &meetingID,
				Amount:      r.Amount,
				Date:        m.MeetingDate,
				Description: r.Description,
			}); err != nil {
				return res, err
			}
			res.totals.SocialFund = amount
		}

	case item.SharePurchase != nil:
		r := item.SharePurchase
		if err := requireMember(roster, r.MemberID); err != nil {
			return res, err
		}
		value := shared.RoundMoney(cycle.ShareUnitValue.Mul(decimal.NewFromInt(int64(r.NumberOfShares))))
		if _, err := p.ledger.PostPairWithTx(ctx, repos, actor, ledger.PairSpec{
			GroupID:      m.GroupID,
			CycleID:      m.CycleID,
			MeetingID:    &meetingID,
			MemberID:     r.MemberID,
			AccountType:  ledger.AccountShare,
			MemberAmount: value,
			Description:  fmt.Sprintf("%d share(s) at %s", r.NumberOfShares, cycle.ShareUnitValue.StringFixed(2)),
			OccurredAt:   m.MeetingDate,
		}); err != nil {
			return res, err
		}
		if r.Amount != nil && !shared.RoundMoney(*r.Amount).Equal(value) {
			res.warnings = append(res.warnings, meeting.Issue{
				Item:    string(item.Kind),
				Index:   item.Index,
				Code:    meeting.CodeClientTotalMismatch,
				Message: fmt.Sprintf("declared amount %s, posted %s", r.Amount.StringFixed(2), value.StringFixed(2)),
			})
		}
		res.totals.SharesValue = value
		res.totals.SharesCount = r.NumberOfShares

	case item.SocialFund != nil:
		r := item.SocialFund
		if r.MemberID != nil {
			if err := requireMember(roster, *r.MemberID); err != nil {
				return res, err
			}
		}
		cmd := socialfundapp.MovementCommand{
			GroupID:   m.GroupID,
			CycleID:   &m.CycleID,
			MemberID:  r.MemberID,
			MeetingID: &meetingID,
			Amount:    r.Amount,
			Date:      m.MeetingDate,
			Reason:    r.Reason,
		}
		if r.IsWithdrawal() {
			tx, event, err := p.socialFund.WithdrawWithTx(ctx, repos, actor, cmd)
			if err != nil {
				return res, err
			}
			res.totals.SocialFund = tx.Amount
			res.events = append(res.events, event)
		} else {
			tx, err := p.socialFund.ContributeWithTx(ctx, repos, actor, cmd)
			if err != nil {
				return res, err
			}
			res.totals.SocialFund = tx.Amount
		}

	case item.Repayment != nil:
		r := item.Repayment
		result, l, err := p.loans.RepayWithTx(ctx, repos, actor, r.LoanID, loanapp.RepayCommand{
			Amount:        r.Amount,
			PaymentMethod: r.PaymentMethod,
			PaymentDate:   m.MeetingDate,
			MeetingID:     &meetingID,
			CycleID:       &m.CycleID,
		})
		if err != nil {
			return res, err
		}
		res.totals.LoansRepaid = result.Amount
		res.events = drain(l)

	case item.Loan != nil:
		r := item.Loan
		if err := requireMember(roster, r.MemberID); err != nil {
			return res, err
		}
		l, err := p.loans.DisburseWithTx(ctx, repos, actor, loanapp.DisburseCommand{
			GroupID:          m.GroupID,
			CycleID:          m.CycleID,
			MeetingID:        &meetingID,
			BorrowerID:       r.MemberID,
			Amount:           r.Amount,
			InterestRate:     r.InterestRate,
			DurationMonths:   r.DurationMonths,
			DisbursementDate: m.MeetingDate,
			Purpose:          r.Purpose,
		})
		if err != nil {
			return res, err
		}
		res.totals.LoansDisbursed = l.LoanAmount
		res.events = drain(l)

	case item.PlanUpdate != nil:
		u := item.PlanUpdate
		plan, err := repos.MeetingRepo().FindActionPlan(ctx, u.ID)
		if errors.Is(err, shared.ErrNotFound) || (err == nil && plan.GroupID != m.GroupID) {
			return res, unknownPlan(u.ID)
		}
		if err != nil {
			return res, err
		}
		if err := plan.ApplyUpdate(m.ID, *u); err != nil {
			return res, err
		}
		if err := repos.MeetingRepo().SaveActionPlan(ctx, plan); err != nil {
			return res, err
		}

	case item.Plan != nil:
		plan, err := meeting.NewActionPlan(m, *item.Plan)
		if err != nil {
			return res, err
		}
		if err := repos.MeetingRepo().CreateActionPlan(ctx, plan); err != nil {
			return res, err
		}
	}
	return res, nil
}

func drain(agg shared.AggregateRoot) []shared.DomainEvent {
	var c shared.EventCollector
	c.Collect(agg)
	return c.Events()
}

func requireMember(roster map[uuid.UUID]bool, memberID uuid.UUID) error {
	if !roster[memberID] {
		return shared.ErrMemberNotFound.WithMessage("member %s is not in the group", memberID)
	}
	return nil
}

var errUnknownPlan = shared.NewDomainError(meeting.CodeUnknownActionPlan, "Action plan not found")

func unknownPlan(id uuid.UUID) error {
	return errUnknownPlan.WithMessage("action plan %s is not a plan of this group", id)
}

// isAdvisory reports whether problems with the item are warnings rather than
// rejected money
func isAdvisory(kind meeting.ItemKind) bool {
	return kind == meeting.ItemActionPlanUpdate || kind == meeting.ItemActionPlan
}

// issueFor converts an item error into a recorded issue. Errors that are not
// domain errors are structural and are not converted.
func issueFor(item meeting.Item, err error) (meeting.Issue, bool) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return meeting.Issue{}, false
	}
	return meeting.Issue{
		Item:    string(item.Kind),
		Index:   item.Index,
		Code:    de.Code,
		Message: de.Message,
	}, true
}
