package meeting

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	loanapp "github.com/farmsupport/vsla/internal/application/loan"
	socialfundapp "github.com/farmsupport/vsla/internal/application/socialfund"
	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	assoc      *testutil.Association
	gateway    *IngestionGateway
	processor  *Processor
	queries    *QueryService
	ledger     *ledgerapp.Service
	loans      *loanapp.Service
	socialFund *socialfundapp.Service
	publisher  *testutil.RecordingPublisher
}

func newFixture(t *testing.T, members int) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedAssociation(t, db, members)
	scope := persistence.NewGormTransactionScope(db)
	logger := zap.NewNop()

	ledgerSvc := ledgerapp.NewService(scope, logger)
	loanSvc := loanapp.NewService(scope, ledgerSvc, logger)
	socialFundSvc := socialfundapp.NewService(scope, logger)
	processor := NewProcessor(scope, ledgerSvc, loanSvc, socialFundSvc, logger)
	publisher := &testutil.RecordingPublisher{}
	processor.SetEventPublisher(publisher)
	processor.SetTimeout(30 * time.Second)

	return &fixture{
		assoc:      a,
		gateway:    NewIngestionGateway(scope, processor, logger),
		processor:  processor,
		queries:    NewQueryService(scope),
		ledger:     ledgerSvc,
		loans:      loanSvc,
		socialFund: socialFundSvc,
		publisher:  publisher,
	}
}

// batch returns a batch with every member present and nothing posted
func (f *fixture) batch(localID string) *meeting.Batch {
	b := &meeting.Batch{
		LocalID:        localID,
		CycleID:        f.assoc.Cycle.ID,
		MeetingDate:    "2026-03-14",
		MembersPresent: len(f.assoc.Members),
	}
	for _, m := range f.assoc.Members {
		b.Attendance = append(b.Attendance, meeting.AttendanceRecord{MemberID: m.ID, Present: true})
	}
	return b
}

func (f *fixture) submit(t *testing.T, b *meeting.Batch) *meeting.Outcome {
	t.Helper()
	outcome, err := f.gateway.Submit(t.Context(), f.assoc.Actor(0), b, nil)
	require.NoError(t, err)
	return outcome
}

func (f *fixture) holdings(t *testing.T, account ledger.AccountType) decimal.Decimal {
	t.Helper()
	h, err := f.ledger.GroupHoldings(t.Context(), f.assoc.Group.ID, f.assoc.Cycle.ID, account)
	require.NoError(t, err)
	return h
}

func (f *fixture) memberBalance(t *testing.T, member uuid.UUID, account ledger.AccountType) decimal.Decimal {
	t.Helper()
	owner := ledger.OwnerMember
	sum, err := f.ledger.Balance(t.Context(), ledger.Filter{
		GroupID: &f.assoc.Group.ID, CycleID: &f.assoc.Cycle.ID, MemberID: &member, OwnerType: &owner, AccountType: &account,
	})
	require.NoError(t, err)
	return sum
}

func savings(member uuid.UUID, amount string) meeting.TransactionRecord {
	return meeting.TransactionRecord{MemberID: member, AccountType: ledger.AccountSavings, Amount: testutil.Money(amount)}
}

func TestSubmit_SavingsPostedOnce(t *testing.T) {
	f := newFixture(t, 2)
	member := f.assoc.Members[1].ID

	b := f.batch("abc")
	b.Transactions = []meeting.TransactionRecord{savings(member, "10000")}
	outcome := f.submit(t, b)

	assert.True(t, outcome.Success)
	assert.False(t, outcome.Duplicate)
	assert.Equal(t, 1, outcome.MeetingNumber)
	assert.Equal(t, meeting.StatusCompleted, outcome.ProcessingStatus)
	assert.Empty(t, outcome.Errors)
	assert.Empty(t, outcome.Warnings)
	assert.True(t, decimal.NewFromInt(10000).Equal(f.holdings(t, ledger.AccountSavings)))
	assert.True(t, decimal.NewFromInt(10000).Equal(f.memberBalance(t, member, ledger.AccountSavings)))

	again := f.submit(t, b)
	assert.True(t, again.Duplicate)
	assert.Equal(t, outcome.MeetingID, again.MeetingID)
	assert.Equal(t, meeting.StatusCompleted, again.ProcessingStatus)
	assert.True(t, decimal.NewFromInt(10000).Equal(f.holdings(t, ledger.AccountSavings)), "a resubmission posts nothing")

	assert.Equal(t, []string{meeting.EventTypeMeetingProcessed}, f.publisher.Types())
}

func TestSubmit_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, 2)
	b := f.batch("same-device-id")
	b.Transactions = []meeting.TransactionRecord{savings(f.assoc.Members[1].ID, "2500")}

	const submitters = 4
	outcomes := make([]*meeting.Outcome, submitters)
	errs := make([]error, submitters)
	var wg sync.WaitGroup
	for i := range submitters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			copyOf := *b
			outcomes[i], errs[i] = f.gateway.Submit(t.Context(), f.assoc.Actor(0), &copyOf, nil)
		}(i)
	}
	wg.Wait()

	firsts := 0
	for i := range submitters {
		require.NoError(t, errs[i])
		if !outcomes[i].Duplicate {
			firsts++
		}
		assert.Equal(t, outcomes[0].MeetingID, outcomes[i].MeetingID)
	}
	assert.Equal(t, 1, firsts)
	assert.True(t, decimal.NewFromInt(2500).Equal(f.holdings(t, ledger.AccountSavings)))
}

func TestSubmit_MeetingNumbersIncrease(t *testing.T) {
	f := newFixture(t, 1)
	first := f.submit(t, f.batch("m-1"))
	second := f.submit(t, f.batch("m-2"))
	assert.Equal(t, 1, first.MeetingNumber)
	assert.Equal(t, 2, second.MeetingNumber)

	page, err := f.queries.List(t.Context(), meeting.Filter{CycleID: &f.assoc.Cycle.ID}, shared.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestSubmit_ItemFailuresNeedReview(t *testing.T) {
	f := newFixture(t, 3)
	ctx := t.Context()
	borrower := f.assoc.Members[1].ID
	saver := f.assoc.Members[2].ID

	existing, err := f.loans.Disburse(ctx, f.assoc.Actor(0), loanapp.DisburseCommand{
		GroupID: f.assoc.Group.ID, CycleID: f.assoc.Cycle.ID, BorrowerID: borrower,
		Amount: testutil.Money("50000"), InterestRate: decimal.Zero, DurationMonths: 2,
	})
	require.NoError(t, err)

	b := f.batch("mixed")
	b.Transactions = []meeting.TransactionRecord{
		savings(saver, "3000"),
		{MemberID: saver, AccountType: ledger.AccountFine, Amount: testutil.Money("200")},
		{MemberID: uuid.New(), AccountType: ledger.AccountWelfare, Amount: testutil.Money("100")},
	}
	b.LoanRepayments = []meeting.RepaymentRecord{
		{LoanID: existing.ID, Amount: testutil.Money("60000")},
		{LoanID: uuid.New(), Amount: testutil.Money("10")},
		{LoanID: existing.ID, Amount: testutil.Money("20000"), PaymentMethod: "cash"},
	}
	b.SocialFund = []meeting.SocialFundRecord{
		{TransactionType: "contribution", Amount: testutil.Money("500")},
		{TransactionType: "withdrawal", Amount: testutil.Money("800"), Reason: "emergency"},
	}
	outcome := f.submit(t, b)

	assert.True(t, outcome.Success)
	assert.Equal(t, meeting.StatusNeedsReview, outcome.ProcessingStatus)
	assert.True(t, outcome.HasErrors)
	codes := make(map[string]int)
	for _, issue := range outcome.Errors {
		codes[issue.Code]++
	}
	assert.Equal(t, map[string]int{
		shared.ErrMemberNotFound.Code:       1,
		shared.ErrAmountExceedsBalance.Code: 1,
		shared.ErrLoanNotFound.Code:         1,
		shared.ErrInsufficientBalance.Code:  1,
	}, codes)

	got, err := f.loans.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "30000.00", got.Balance.StringFixed(2), "only the valid repayment applied")

	stored, err := f.queries.Get(ctx, uuid.MustParse(outcome.MeetingID))
	require.NoError(t, err)
	assert.Equal(t, "3000.00", stored.Totals.Savings.StringFixed(2))
	assert.Equal(t, "200.00", stored.Totals.Fines.StringFixed(2))
	assert.Equal(t, "20000.00", stored.Totals.LoansRepaid.StringFixed(2))
	assert.Equal(t, "500.00", stored.Totals.SocialFund.StringFixed(2))
	assert.Len(t, stored.Attendance, 3)

	balance, err := f.socialFund.Balance(ctx, f.assoc.Group.ID, &f.assoc.Cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", balance.StringFixed(2))

	// a reprocess skips what already committed
	again, err := f.processor.Reprocess(ctx, f.assoc.Actor(0), uuid.MustParse(outcome.MeetingID))
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusNeedsReview, again.ProcessingStatus)
	assert.Len(t, again.Errors, 4)
	assert.True(t, decimal.NewFromInt(3000).Equal(f.holdings(t, ledger.AccountSavings)))

	got, err = f.loans.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "30000.00", got.Balance.StringFixed(2))

	stored, err = f.queries.Get(ctx, uuid.MustParse(outcome.MeetingID))
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ProcessingAttempts)
	assert.Equal(t, "3000.00", stored.Totals.Savings.StringFixed(2))
}

func TestSubmit_LoansAndShares(t *testing.T) {
	f := newFixture(t, 2)
	ctx := t.Context()
	member := f.assoc.Members[1].ID
	declared := testutil.Money("3000")

	b := f.batch("loans-and-shares")
	b.SharePurchases = []meeting.SharePurchaseRecord{
		{MemberID: member, NumberOfShares: 3, Amount: &declared},
		{MemberID: f.assoc.Chair().ID, NumberOfShares: 2, Amount: &declared},
	}
	b.Loans = []meeting.LoanRecord{
		{MemberID: member, Amount: testutil.Money("1000"), InterestRate: testutil.Money("0.1"), DurationMonths: 3},
	}
	outcome := f.submit(t, b)

	require.Equal(t, meeting.StatusNeedsReview, outcome.ProcessingStatus)
	assert.Empty(t, outcome.Errors)
	require.Len(t, outcome.Warnings, 1, "the second purchase declared the wrong amount")
	assert.Equal(t, string(meeting.ItemSharePurchase), outcome.Warnings[0].Item)
	assert.Equal(t, 1, outcome.Warnings[0].Index)

	assert.True(t, decimal.NewFromInt(5000).Equal(f.holdings(t, ledger.AccountShare)))
	assert.True(t, decimal.NewFromInt(-1000).Equal(f.memberBalance(t, member, ledger.AccountLoan)))

	stored, err := f.queries.Get(ctx, uuid.MustParse(outcome.MeetingID))
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Totals.SharesCount)
	assert.Equal(t, "1000.00", stored.Totals.LoansDisbursed.StringFixed(2))

	meetingID := uuid.MustParse(outcome.MeetingID)
	loans, err := f.loans.List(ctx, loan.Filter{BorrowerID: &member}, shared.Pagination{})
	require.NoError(t, err)
	require.Len(t, loans.Items, 1)
	assert.Equal(t, meetingID, *loans.Items[0].MeetingID)
	assert.Equal(t, "1100.00", loans.Items[0].TotalAmountDue.StringFixed(2))

	assert.Contains(t, f.publisher.Types(), loan.EventTypeLoanDisbursed)
}

func TestSubmit_AdvisoryWarnings(t *testing.T) {
	f := newFixture(t, 2)
	declaredSavings := testutil.Money("999")

	b := f.batch("advisory")
	b.MembersPresent = 5
	b.Attendance = append(b.Attendance, meeting.AttendanceRecord{MemberID: uuid.New(), Present: true})
	b.Transactions = []meeting.TransactionRecord{savings(f.assoc.Chair().ID, "1000")}
	b.ClientTotals = &meeting.ClientTotals{Savings: &declaredSavings}
	outcome := f.submit(t, b)

	assert.Equal(t, meeting.StatusNeedsReview, outcome.ProcessingStatus)
	assert.False(t, outcome.HasErrors)
	codes := make([]string, 0, len(outcome.Warnings))
	for _, w := range outcome.Warnings {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{
		meeting.CodeUnknownMember,
		meeting.CodeAttendanceMismatch,
		meeting.CodeClientTotalMismatch,
	}, codes)
	assert.True(t, decimal.NewFromInt(1000).Equal(f.holdings(t, ledger.AccountSavings)), "client totals never change what is posted")
}

func TestSubmit_ActionPlans(t *testing.T) {
	f := newFixture(t, 2)
	ctx := t.Context()
	assignee := f.assoc.Members[1].ID

	first := f.batch("plans-1")
	first.UpcomingActionPlans = []meeting.ActionPlanRecord{
		{Description: "Buy a new cash box", AssignedMemberID: &assignee, DueDate: "2026-04-01"},
	}
	outcome := f.submit(t, first)
	require.Equal(t, meeting.StatusCompleted, outcome.ProcessingStatus)

	plans, err := f.queries.ActionPlans(ctx, f.assoc.Cycle.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, string(meeting.PlanPending), plans[0].Status)

	second := f.batch("plans-2")
	second.MeetingDate = "2026-03-28"
	second.PreviousActionPlans = []meeting.ActionPlanUpdate{
		{ID: plans[0].ID, Status: "completed", Note: "bought at the market"},
		{ID: uuid.New(), Status: "in_progress"},
	}
	outcome = f.submit(t, second)
	assert.Equal(t, meeting.StatusNeedsReview, outcome.ProcessingStatus)
	assert.False(t, outcome.HasErrors, "action plan problems are advisory")
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, meeting.CodeUnknownActionPlan, outcome.Warnings[0].Code)

	plans, err = f.queries.ActionPlans(ctx, f.assoc.Cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, string(meeting.PlanCompleted), plans[0].Status)
	assert.Equal(t, "bought at the market", plans[0].LastNote)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t, 1)
	ctx := t.Context()
	actor := f.assoc.Actor(0)

	t.Run("invalid batch", func(t *testing.T) {
		b := f.batch("")
		_, err := f.gateway.Submit(ctx, actor, b, nil)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		b := f.batch("unknown-cycle")
		b.CycleID = uuid.New()
		_, err := f.gateway.Submit(ctx, actor, b, nil)
		assert.ErrorIs(t, err, shared.ErrCycleNotFound)
	})

	t.Run("unknown group", func(t *testing.T) {
		b := f.batch("unknown-group")
		groupID := uuid.New()
		b.GroupID = &groupID
		_, err := f.gateway.Submit(ctx, actor, b, nil)
		assert.ErrorIs(t, err, shared.ErrGroupNotFound)
	})

	t.Run("group of another cycle", func(t *testing.T) {
		other := testutil.SeedAssociation(t, f.assoc.DB, 1)
		b := f.batch("mismatch")
		b.GroupID = &other.Group.ID
		_, err := f.gateway.Submit(ctx, actor, b, nil)
		assert.ErrorIs(t, err, shared.ErrGroupMismatch)
	})

	t.Run("group that is not a VSLA", func(t *testing.T) {
		coop, err := group.NewGroup("Farmers Cooperative", "COOP1", group.CategoryCooperative)
		require.NoError(t, err)
		require.NoError(t, persistence.NewGormGroupRepository(f.assoc.DB).Create(ctx, coop))
		c, err := group.NewCycle(coop.ID, "Season", group.CycleTypeSavingsAssociation, group.SavingTypeFreeAmount,
			decimal.NewFromInt(500), testutil.CycleStart, testutil.CycleStart.AddDate(0, 6, 0))
		require.NoError(t, err)
		require.NoError(t, persistence.NewGormCycleRepository(f.assoc.DB).Create(ctx, c))

		b := f.batch("coop")
		b.CycleID = c.ID
		_, err = f.gateway.Submit(ctx, actor, b, nil)
		assert.ErrorIs(t, err, shared.ErrCycleState)
	})

	page, err := f.queries.List(ctx, meeting.Filter{GroupID: &f.assoc.Group.ID}, shared.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "rejected batches write nothing")
}

func TestProcess_StructuralFailureMarksFailed(t *testing.T) {
	f := newFixture(t, 1)
	ctx := t.Context()
	db := f.assoc.DB

	b := f.batch("structural")
	b.Transactions = []meeting.TransactionRecord{savings(f.assoc.Chair().ID, "700")}
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	m, err := meeting.NewMeeting(b, f.assoc.Group.ID, 1, raw, f.assoc.Actor(0).UserID)
	require.NoError(t, err)
	inserted, err := persistence.NewGormMeetingRepository(db).CreateIfAbsent(ctx, m)
	require.NoError(t, err)
	require.True(t, inserted)

	cycles := persistence.NewGormCycleRepository(db)
	c, err := cycles.FindByID(ctx, f.assoc.Cycle.ID)
	require.NoError(t, err)
	require.NoError(t, c.Close(time.Now()))
	require.NoError(t, cycles.Save(ctx, c))

	outcome, err := f.processor.Process(ctx, f.assoc.Actor(0), m.ID)
	require.ErrorIs(t, err, shared.ErrProcessingFailed)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Success)
	assert.Equal(t, meeting.StatusFailed, outcome.ProcessingStatus)

	stored, err := f.queries.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(meeting.StatusFailed), stored.ProcessingStatus)
	assert.NotEmpty(t, stored.FailureReason)
	assert.True(t, f.holdings(t, ledger.AccountSavings).IsZero(), "the failed run posted nothing")
}

// lockFailingScope makes the next n meeting row locks fail the way a lock
// wait timeout does
type lockFailingScope struct {
	txscope.TransactionScope
	remaining atomic.Int32
}

func (s *lockFailingScope) Execute(ctx context.Context, fn func(repos txscope.TransactionalRepositories) error) error {
	return s.TransactionScope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		return fn(lockFailingRepos{TransactionalRepositories: repos, scope: s})
	})
}

type lockFailingRepos struct {
	txscope.TransactionalRepositories
	scope *lockFailingScope
}

func (r lockFailingRepos) MeetingRepo() meeting.MeetingRepository {
	return lockFailingMeetings{MeetingRepository: r.TransactionalRepositories.MeetingRepo(), scope: r.scope}
}

type lockFailingMeetings struct {
	meeting.MeetingRepository
	scope *lockFailingScope
}

func (m lockFailingMeetings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*meeting.Meeting, error) {
	if m.scope.remaining.Add(-1) >= 0 {
		return nil, context.DeadlineExceeded
	}
	return m.MeetingRepository.FindByIDForUpdate(ctx, id)
}

func TestProcess_LockTimeoutMarksFailed(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedAssociation(t, db, 1)
	scope := &lockFailingScope{TransactionScope: persistence.NewGormTransactionScope(db)}
	logger := zap.NewNop()
	ledgerSvc := ledgerapp.NewService(scope, logger)
	loanSvc := loanapp.NewService(scope, ledgerSvc, logger)
	processor := NewProcessor(scope, ledgerSvc, loanSvc, socialfundapp.NewService(scope, logger), logger)
	gateway := NewIngestionGateway(scope, processor, logger)
	ctx := t.Context()

	b := &meeting.Batch{
		LocalID:        "lock-timeout",
		CycleID:        a.Cycle.ID,
		MeetingDate:    "2026-03-14",
		MembersPresent: 1,
		Attendance:     []meeting.AttendanceRecord{{MemberID: a.Chair().ID, Present: true}},
		Transactions:   []meeting.TransactionRecord{savings(a.Chair().ID, "400")},
	}
	scope.remaining.Store(1)
	outcome, err := gateway.Submit(ctx, a.Actor(0), b, nil)
	require.ErrorIs(t, err, shared.ErrProcessingFailed)
	require.NotNil(t, outcome)
	assert.Equal(t, meeting.StatusFailed, outcome.ProcessingStatus)

	stored, err := persistence.NewGormMeetingRepository(db).FindByLocalID(ctx, "lock-timeout")
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusFailed, stored.ProcessingStatus)
	assert.Contains(t, stored.FailureReason, context.DeadlineExceeded.Error())

	outcome, err = processor.Reprocess(ctx, a.Actor(0), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusCompleted, outcome.ProcessingStatus)
}

func TestSubmit_RedrivesStalePending(t *testing.T) {
	f := newFixture(t, 1)
	ctx := t.Context()
	repo := persistence.NewGormMeetingRepository(f.assoc.DB)

	register := func(localID string, age time.Duration) *meeting.Meeting {
		b := f.batch(localID)
		b.Transactions = []meeting.TransactionRecord{savings(f.assoc.Chair().ID, "300")}
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		number, err := repo.MaxMeetingNumber(ctx, f.assoc.Cycle.ID)
		require.NoError(t, err)
		m, err := meeting.NewMeeting(b, f.assoc.Group.ID, number+1, raw, f.assoc.Actor(0).UserID)
		require.NoError(t, err)
		m.CreatedAt = m.CreatedAt.Add(-age)
		m.UpdatedAt = m.CreatedAt
		inserted, err := repo.CreateIfAbsent(ctx, m)
		require.NoError(t, err)
		require.True(t, inserted)
		return m
	}

	fresh := register("in-flight", 0)
	outcome := f.submit(t, f.batch("in-flight"))
	assert.True(t, outcome.Duplicate)
	assert.Equal(t, meeting.StatusPending, outcome.ProcessingStatus, "a run may still be about to start")

	stale := register("abandoned", time.Hour)
	outcome = f.submit(t, f.batch("abandoned"))
	assert.False(t, outcome.Duplicate)
	assert.Equal(t, stale.ID.String(), outcome.MeetingID)
	assert.Equal(t, meeting.StatusCompleted, outcome.ProcessingStatus)
	assert.True(t, decimal.NewFromInt(300).Equal(f.holdings(t, ledger.AccountSavings)))

	stored, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusPending, stored.ProcessingStatus)
}

func TestReprocess_RequiresReviewableStatus(t *testing.T) {
	f := newFixture(t, 1)
	outcome := f.submit(t, f.batch("done"))
	require.Equal(t, meeting.StatusCompleted, outcome.ProcessingStatus)

	_, err := f.processor.Reprocess(t.Context(), f.assoc.Actor(0), uuid.MustParse(outcome.MeetingID))
	assert.ErrorIs(t, err, shared.ErrMeetingState)

	_, err = f.processor.Reprocess(t.Context(), f.assoc.Actor(0), uuid.New())
	assert.ErrorIs(t, err, shared.ErrMeetingNotFound)
}

func TestMeetingListFilter_ToDomain(t *testing.T) {
	_, err := MeetingListFilter{}.ToDomain()
	assert.ErrorIs(t, err, shared.ErrValidation)

	cycleID := uuid.New()
	filter, err := MeetingListFilter{CycleID: cycleID.String(), Status: "needs_review"}.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, cycleID, *filter.CycleID)
	assert.Equal(t, meeting.StatusNeedsReview, *filter.Status)
}
