package meeting

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBatch() *Batch {
	member := uuid.New()
	return &Batch{
		LocalID:        "abc",
		CycleID:        uuid.New(),
		MeetingDate:    "2026-03-14",
		MembersPresent: 1,
		Attendance:     []AttendanceRecord{{MemberID: member, Present: true}},
		Transactions: []TransactionRecord{
			{MemberID: member, AccountType: "savings", Amount: decimal.NewFromInt(10000)},
		},
	}
}

func TestBatchValidate(t *testing.T) {
	t.Run("valid batch", func(t *testing.T) {
		assert.NoError(t, validBatch().Validate())
	})

	t.Run("decodes from mobile payload", func(t *testing.T) {
		payload := `{
			"local_id": "m-1",
			"cycle_id": "` + uuid.NewString() + `",
			"meeting_date": "2026-03-14",
			"members_present": 2,
			"attendance_data": [{"member_id": "` + uuid.NewString() + `", "present": true}],
			"transactions_data": [{"member_id": "` + uuid.NewString() + `", "account_type": "fine", "amount": "500"}],
			"loans_data": [{"member_id": "` + uuid.NewString() + `", "amount": 20000, "interest_rate": "0.1", "duration_months": 3}]
		}`
		var b Batch
		require.NoError(t, json.Unmarshal([]byte(payload), &b))
		require.NoError(t, b.Validate())
		assert.Equal(t, 2026, b.Date().Year())
		assert.True(t, b.Loans[0].Amount.Equal(decimal.NewFromInt(20000)))
	})

	t.Run("collects field errors", func(t *testing.T) {
		b := validBatch()
		b.LocalID = ""
		b.MeetingDate = "14/03/2026"
		b.Transactions[0].AccountType = "loan"
		b.Transactions[0].Amount = decimal.Zero

		err := b.Validate()

		require.True(t, errors.Is(err, shared.ErrValidation))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		fields := map[string]bool{}
		for _, fe := range de.Details["fields"].([]FieldError) {
			fields[fe.Field] = true
		}
		assert.True(t, fields["local_id"])
		assert.True(t, fields["meeting_date"])
		assert.True(t, fields["transactions_data[0].account_type"])
		assert.True(t, fields["transactions_data[0].amount"])
	})

	t.Run("attendance required", func(t *testing.T) {
		b := validBatch()
		b.Attendance = nil
		assert.True(t, errors.Is(b.Validate(), shared.ErrValidation))
	})

	t.Run("nil cycle rejected", func(t *testing.T) {
		b := validBatch()
		b.CycleID = uuid.Nil
		assert.True(t, errors.Is(b.Validate(), shared.ErrValidation))
	})
}

func TestBatchItems(t *testing.T) {
	b := validBatch()
	b.SharePurchases = []SharePurchaseRecord{{MemberID: uuid.New(), NumberOfShares: 2}}
	b.LoanRepayments = []RepaymentRecord{{LoanID: uuid.New(), Amount: decimal.NewFromInt(10)}}
	b.Loans = []LoanRecord{{MemberID: uuid.New(), Amount: decimal.NewFromInt(10), DurationMonths: 1}}
	b.UpcomingActionPlans = []ActionPlanRecord{{Description: "buy seed"}}

	items := b.Items()

	require.Len(t, items, 5)
	assert.Equal(t, ItemSavings, items[0].Kind)
	assert.Equal(t, "transaction:0", items[0].Key())
	assert.Equal(t, ItemSharePurchase, items[1].Kind)
	assert.Equal(t, ItemLoanRepayment, items[2].Kind)
	assert.Equal(t, ItemLoanDisbursement, items[3].Kind)
	assert.Equal(t, "loan_disbursement:0", items[3].Key())
	assert.Equal(t, ItemActionPlan, items[4].Kind)
}

func TestMeetingLifecycle(t *testing.T) {
	newMeeting := func(t *testing.T) *Meeting {
		m, err := NewMeeting(validBatch(), uuid.New(), 1, []byte(`{}`), uuid.New())
		require.NoError(t, err)
		return m
	}

	t.Run("pending to completed", func(t *testing.T) {
		m := newMeeting(t)
		assert.Equal(t, StatusPending, m.ProcessingStatus)
		require.NoError(t, m.StartProcessing())
		assert.Equal(t, 1, m.ProcessingAttempts)
		require.NoError(t, m.Finish(nil, nil))
		assert.Equal(t, StatusCompleted, m.ProcessingStatus)
		assert.NotNil(t, m.ProcessedAt)

		assert.True(t, errors.Is(m.EnsureReprocessable(), shared.ErrMeetingState))
		assert.True(t, errors.Is(m.StartProcessing(), shared.ErrMeetingState))
	})

	t.Run("only an undriven pending meeting goes stale", func(t *testing.T) {
		m := newMeeting(t)
		later := m.UpdatedAt.Add(time.Minute)
		assert.False(t, m.StalePending(time.Hour, later))
		assert.True(t, m.StalePending(30*time.Second, later))

		require.NoError(t, m.StartProcessing())
		assert.False(t, m.StalePending(30*time.Second, later))
	})

	t.Run("issues lead to needs_review which can be reprocessed", func(t *testing.T) {
		m := newMeeting(t)
		require.NoError(t, m.StartProcessing())
		m.MarkPosted("transaction:0")
		require.NoError(t, m.Finish([]Issue{{Item: "loan_repayment", Code: "AMOUNT_EXCEEDS_BALANCE"}}, nil))
		assert.Equal(t, StatusNeedsReview, m.ProcessingStatus)
		assert.True(t, m.HasErrors)

		require.NoError(t, m.EnsureReprocessable())
		require.NoError(t, m.StartProcessing())
		assert.Equal(t, 2, m.ProcessingAttempts)
		assert.False(t, m.HasErrors)
		assert.True(t, m.IsPosted("transaction:0"))
	})

	t.Run("fail records reason", func(t *testing.T) {
		m := newMeeting(t)
		require.NoError(t, m.StartProcessing())
		m.Fail("cycle closed mid-flight")
		assert.Equal(t, StatusFailed, m.ProcessingStatus)
		require.Len(t, m.Errors, 1)
		assert.Equal(t, "PROCESSING_FAILED", m.Errors[0].Code)
		assert.NoError(t, m.EnsureReprocessable())

		out := OutcomeOf(m, false)
		assert.False(t, out.Success)
		assert.True(t, out.HasErrors)
	})

	t.Run("outcome lists are never nil", func(t *testing.T) {
		out := OutcomeOf(newMeeting(t), true)
		assert.NotNil(t, out.Errors)
		assert.NotNil(t, out.Warnings)
		assert.True(t, out.Duplicate)
	})
}

func TestAttendanceFrom(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rows, present, absent := AttendanceFrom(uuid.New(), []AttendanceRecord{
		{MemberID: a, Present: false},
		{MemberID: b, Present: false},
		{MemberID: a, Present: true},
	})
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, present)
	assert.Equal(t, 1, absent)
}

func TestTotalsCompare(t *testing.T) {
	totals := ZeroTotals()
	totals.Savings = decimal.NewFromInt(10000)
	declared := decimal.NewFromInt(12000)
	same := decimal.Zero

	issues := totals.Compare(&ClientTotals{Savings: &declared, Fines: &same})

	require.Len(t, issues, 1)
	assert.Equal(t, CodeClientTotalMismatch, issues[0].Code)
	assert.Contains(t, issues[0].Message, "total_savings")
	assert.Nil(t, totals.Compare(nil))
}

func TestTotalsAdd(t *testing.T) {
	a := ZeroTotals()
	a.Savings = decimal.NewFromInt(500)
	a.SharesCount = 2
	b := ZeroTotals()
	b.Savings = decimal.NewFromInt(250)
	b.SocialFund = decimal.NewFromInt(-40)
	b.SharesCount = 3

	sum := a.Add(b)
	assert.True(t, decimal.NewFromInt(750).Equal(sum.Savings))
	assert.True(t, decimal.NewFromInt(-40).Equal(sum.SocialFund))
	assert.Equal(t, 5, sum.SharesCount)
	assert.True(t, sum.LoansRepaid.IsZero())
}

func TestActionPlan(t *testing.T) {
	m, err := NewMeeting(validBatch(), uuid.New(), 3, nil, uuid.New())
	require.NoError(t, err)

	plan, err := NewActionPlan(m, ActionPlanRecord{Description: " fence the garden ", DueDate: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, "fence the garden", plan.Description)
	require.NotNil(t, plan.DueDate)

	next := uuid.New()
	require.NoError(t, plan.ApplyUpdate(next, ActionPlanUpdate{ID: plan.ID, Status: "completed"}))
	assert.Equal(t, PlanCompleted, plan.Status)
	assert.Equal(t, next, *plan.UpdatedInMeeting)
	assert.Error(t, plan.ApplyUpdate(next, ActionPlanUpdate{ID: plan.ID, Status: "pending"}))

	_, err = NewActionPlan(m, ActionPlanRecord{Description: "x", DueDate: "soon"})
	assert.Error(t, err)
}
