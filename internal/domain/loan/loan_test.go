package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestLoan(t *testing.T, principal, rate string) (*Loan, []Transaction) {
	t.Helper()
	l, trail, err := Disburse(DisburseParams{
		GroupID:          uuid.New(),
		CycleID:          uuid.New(),
		BorrowerID:       uuid.New(),
		Principal:        dec(principal),
		InterestRate:     dec(rate),
		DurationMonths:   3,
		DisbursementDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:        uuid.New(),
	})
	require.NoError(t, err)
	return l, trail
}

func TestDisburse(t *testing.T) {
	t.Run("computes total due once", func(t *testing.T) {
		l, trail := newTestLoan(t, "100000", "0.1")

		assert.True(t, l.TotalAmountDue.Equal(dec("110000")))
		assert.True(t, l.Balance.Equal(dec("110000")))
		assert.True(t, l.AmountPaid.IsZero())
		assert.Equal(t, StatusActive, l.Status)
		assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), l.DueDate)

		require.Len(t, trail, 2)
		assert.Equal(t, TxPrincipal, trail[0].Type)
		assert.True(t, trail[0].Amount.Equal(dec("-100000")))
		assert.Equal(t, TxInterest, trail[1].Type)
		assert.True(t, trail[1].Amount.Equal(dec("-10000")))

		events := l.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeLoanDisbursed, events[0].EventType())
	})

	t.Run("zero rate has no interest transaction", func(t *testing.T) {
		l, trail := newTestLoan(t, "5000", "0")
		assert.Len(t, trail, 1)
		assert.True(t, l.Balance.Equal(dec("5000")))
	})

	t.Run("balance equals negated trail sum", func(t *testing.T) {
		l, trail := newTestLoan(t, "33333.33", "0.075")
		sum := decimal.Zero
		for _, tx := range trail {
			sum = sum.Add(tx.Amount)
		}
		assert.True(t, l.Balance.Equal(sum.Neg()))
	})

	t.Run("validation", func(t *testing.T) {
		base := DisburseParams{GroupID: uuid.New(), CycleID: uuid.New(), BorrowerID: uuid.New(), Principal: dec("100"), InterestRate: dec("0.1"), DurationMonths: 1}

		p := base
		p.Principal = decimal.Zero
		_, _, err := Disburse(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		p = base
		p.InterestRate = dec("-0.1")
		_, _, err = Disburse(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		p = base
		p.DurationMonths = 0
		_, _, err = Disburse(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		p = base
		p.BorrowerID = uuid.Nil
		_, _, err = Disburse(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestRepay(t *testing.T) {
	t.Run("rejects amount above balance and leaves loan unchanged", func(t *testing.T) {
		l, _ := newTestLoan(t, "50000", "0")
		before := *l

		tx, err := l.Repay(RepayParams{Amount: dec("60000"), PaymentMethod: "cash"})

		require.Error(t, err)
		assert.Nil(t, tx)
		assert.True(t, errors.Is(err, shared.ErrAmountExceedsBalance))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "50000.00", de.Details["balance"])
		assert.Equal(t, "60000.00", de.Details["requested_amount"])
		assert.True(t, l.Balance.Equal(before.Balance))
		assert.True(t, l.AmountPaid.Equal(before.AmountPaid))
		assert.Equal(t, before.Status, l.Status)
	})

	t.Run("partial then full repayment flips to paid", func(t *testing.T) {
		l, _ := newTestLoan(t, "100000", "0.1")
		l.ClearDomainEvents()

		tx, err := l.Repay(RepayParams{Amount: dec("60000"), PaymentMethod: "cash"})
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(dec("60000")))
		assert.Equal(t, "cash", tx.PaymentMethod)
		assert.True(t, l.Balance.Equal(dec("50000")))
		assert.Equal(t, StatusActive, l.Status)

		_, err = l.Repay(RepayParams{Amount: dec("50000")})
		require.NoError(t, err)
		assert.True(t, l.Balance.IsZero())
		assert.True(t, l.AmountPaid.Equal(dec("110000")))
		assert.Equal(t, StatusPaid, l.Status)

		types := []string{}
		for _, e := range l.GetDomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{EventTypeLoanRepaid, EventTypeLoanRepaid, EventTypeLoanPaidOff}, types)
	})

	t.Run("rejects non positive amount", func(t *testing.T) {
		l, _ := newTestLoan(t, "1000", "0")
		_, err := l.Repay(RepayParams{Amount: decimal.Zero})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("defaulted loan still accepts repayment", func(t *testing.T) {
		l, _ := newTestLoan(t, "1000", "0")
		require.NoError(t, l.MarkDefaulted())

		_, err := l.Repay(RepayParams{Amount: dec("400")})
		require.NoError(t, err)
		assert.Equal(t, StatusDefaulted, l.Status)

		_, err = l.Repay(RepayParams{Amount: dec("600")})
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, l.Status)
	})
}

func TestPenaltyWaiverDefault(t *testing.T) {
	t.Run("penalty increases due and balance", func(t *testing.T) {
		l, _ := newTestLoan(t, "1000", "0.1")
		tx, err := l.ApplyPenalty(dec("50"), "late", time.Now(), uuid.New())
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(dec("-50")))
		assert.True(t, l.TotalAmountDue.Equal(dec("1150")))
		assert.True(t, l.Balance.Equal(dec("1150")))
	})

	t.Run("waiver can clear the balance", func(t *testing.T) {
		l, _ := newTestLoan(t, "1000", "0")
		_, err := l.Waive(dec("1000"), "hardship", time.Now(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, l.Status)
	})

	t.Run("waiver above balance rejected", func(t *testing.T) {
		l, _ := newTestLoan(t, "1000", "0")
		_, err := l.Waive(dec("1001"), "", time.Now(), uuid.New())
		assert.True(t, errors.Is(err, shared.ErrAmountExceedsBalance))
	})

	t.Run("penalty on paid loan rejected", func(t *testing.T) {
		l, _ := newTestLoan(t, "100", "0")
		_, err := l.Repay(RepayParams{Amount: dec("100")})
		require.NoError(t, err)
		_, err = l.ApplyPenalty(dec("10"), "late", time.Now(), uuid.New())
		assert.True(t, errors.Is(err, shared.ErrLoanState))
	})

	t.Run("only active loans default", func(t *testing.T) {
		l, _ := newTestLoan(t, "100", "0")
		require.NoError(t, l.MarkDefaulted())
		assert.True(t, errors.Is(l.MarkDefaulted(), shared.ErrLoanState))
	})
}

func TestProjectFromTrail(t *testing.T) {
	l, trail := newTestLoan(t, "1000", "0.2")
	pay, err := NewTransaction(l.ID, TxPayment, dec("300"), time.Now(), uuid.Nil)
	require.NoError(t, err)
	adj, err := NewTransaction(l.ID, TxAdjustment, dec("-20"), time.Now(), uuid.Nil)
	require.NoError(t, err)
	trail = append(trail, *pay, *adj)

	l.Project(Totalize(trail))

	assert.True(t, l.TotalAmountDue.Equal(dec("1220")))
	assert.True(t, l.AmountPaid.Equal(dec("300")))
	assert.True(t, l.Balance.Equal(dec("920")))
	sum := decimal.Zero
	for _, tx := range trail {
		sum = sum.Add(tx.Amount)
	}
	assert.True(t, l.Balance.Equal(sum.Neg()))
}

func TestOverdueAndAllocation(t *testing.T) {
	l, _ := newTestLoan(t, "1000", "0.1")

	assert.False(t, l.IsOverdue(l.DueDate))
	assert.True(t, l.IsOverdue(l.DueDate.AddDate(0, 0, 1)))

	_, err := l.Repay(RepayParams{Amount: dec("150")})
	require.NoError(t, err)
	alloc := l.Allocate()
	assert.True(t, alloc.InterestPaid.Equal(dec("100")))
	assert.True(t, alloc.PrincipalPaid.Equal(dec("50")))
	assert.True(t, alloc.OutstandingInterest.IsZero())
	assert.True(t, alloc.OutstandingPrincipal.Equal(dec("950")))

	_, err = l.Repay(RepayParams{Amount: dec("950")})
	require.NoError(t, err)
	assert.False(t, l.IsOverdue(l.DueDate.AddDate(1, 0, 0)))
}

func TestSummarize(t *testing.T) {
	a, _ := newTestLoan(t, "1000", "0.1")
	b, _ := newTestLoan(t, "500", "0")
	_, err := b.Repay(RepayParams{Amount: dec("500")})
	require.NoError(t, err)
	c, _ := newTestLoan(t, "200", "0.1")
	require.NoError(t, c.MarkDefaulted())

	stats := Summarize([]Loan{*a, *b, *c}, a.DueDate.AddDate(0, 0, 5))

	assert.Equal(t, 3, stats.TotalLoans)
	assert.Equal(t, 1, stats.ActiveLoans)
	assert.Equal(t, 1, stats.PaidLoans)
	assert.Equal(t, 1, stats.DefaultedLoans)
	assert.Equal(t, 1, stats.OverdueLoans)
	assert.True(t, stats.TotalDisbursed.Equal(dec("1700")))
	assert.True(t, stats.TotalOutstanding.Equal(dec("1320")))
	assert.True(t, stats.TotalRepaid.Equal(dec("500")))
	assert.True(t, stats.OutstandingInterest.Equal(dec("120")))
}
