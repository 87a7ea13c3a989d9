package ledger

import (
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, members int) (*Service, *testutil.Association) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedAssociation(t, db, members)
	return NewService(persistence.NewGormTransactionScope(db), zap.NewNop()), a
}

func entriesFor(a *testutil.Association, member uuid.UUID, account ledger.AccountType, amount string) (*ledger.Entry, *ledger.Entry) {
	m := &ledger.Entry{
		GroupID:     a.Group.ID,
		CycleID:     a.Cycle.ID,
		OwnerType:   ledger.OwnerMember,
		MemberID:    &member,
		AccountType: account,
		Amount:      decimal.RequireFromString(amount),
		OccurredAt:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	}
	g := &ledger.Entry{
		GroupID:     a.Group.ID,
		CycleID:     a.Cycle.ID,
		OwnerType:   ledger.OwnerGroup,
		AccountType: account,
		Amount:      decimal.RequireFromString(amount).Neg(),
		OccurredAt:  m.OccurredAt,
	}
	return m, g
}

func TestService_PostLinked(t *testing.T) {
	svc, a := newTestService(t, 2)
	actor := a.Actor(0)
	ctx := t.Context()

	member, group := entriesFor(a, a.Members[1].ID, ledger.AccountSavings, "5000")
	pair, err := svc.PostLinked(ctx, actor, member, group)
	require.NoError(t, err)

	assert.Equal(t, pair.GroupEntry.ID, *pair.MemberEntry.ContraEntryID)
	assert.Equal(t, pair.MemberEntry.ID, *pair.GroupEntry.ContraEntryID)
	assert.True(t, pair.GroupEntry.IsContraEntry)
	assert.Equal(t, actor.UserID, pair.MemberEntry.CreatedBy)

	total, err := svc.Balance(ctx, ledger.Filter{CycleID: &a.Cycle.ID})
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "a linked pair nets to zero")

	holdings, err := svc.GroupHoldings(ctx, a.Group.ID, a.Cycle.ID, ledger.AccountSavings)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(holdings), holdings.String())

	memberID := a.Members[1].ID
	owner := ledger.OwnerMember
	own, err := svc.Balance(ctx, ledger.Filter{CycleID: &a.Cycle.ID, MemberID: &memberID, OwnerType: &owner})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(own))
}

func TestService_PostLinked_Rejections(t *testing.T) {
	svc, a := newTestService(t, 1)
	actor := a.Actor(0)
	ctx := t.Context()

	t.Run("unbalanced pair", func(t *testing.T) {
		member, group := entriesFor(a, a.Chair().ID, ledger.AccountFine, "200")
		group.Amount = decimal.NewFromInt(-150)
		_, err := svc.PostLinked(ctx, actor, member, group)
		assert.ErrorIs(t, err, shared.ErrUnbalancedPair)
	})

	t.Run("mismatched accounts", func(t *testing.T) {
		member, group := entriesFor(a, a.Chair().ID, ledger.AccountFine, "200")
		group.AccountType = ledger.AccountWelfare
		_, err := svc.PostLinked(ctx, actor, member, group)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		member, group := entriesFor(a, a.Chair().ID, ledger.AccountFine, "200")
		member.CycleID = uuid.New()
		group.CycleID = member.CycleID
		_, err := svc.PostLinked(ctx, actor, member, group)
		assert.ErrorIs(t, err, shared.ErrCycleNotFound)
	})

	total, err := svc.Balance(ctx, ledger.Filter{GroupID: &a.Group.ID})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	page, err := svc.List(ctx, ledger.Filter{GroupID: &a.Group.ID}, ledger.OrderOldestFirst, shared.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "rejected postings leave nothing behind")
}

func TestService_Reverse(t *testing.T) {
	svc, a := newTestService(t, 1)
	actor := a.Actor(0)
	ctx := t.Context()

	member, group := entriesFor(a, a.Chair().ID, ledger.AccountWelfare, "750")
	pair, err := svc.PostLinked(ctx, actor, member, group)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, actor, pair.GroupEntry.ID, "wrong side")
	assert.ErrorIs(t, err, shared.ErrValidation)

	reversal, err := svc.Reverse(ctx, actor, pair.MemberEntry.ID, "recorded twice")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-750).Equal(reversal.MemberEntry.Amount))
	assert.Contains(t, reversal.MemberEntry.Description, "recorded twice")

	holdings, err := svc.GroupHoldings(ctx, a.Group.ID, a.Cycle.ID, ledger.AccountWelfare)
	require.NoError(t, err)
	assert.True(t, holdings.IsZero())

	page, err := svc.List(ctx, ledger.Filter{CycleID: &a.Cycle.ID}, ledger.OrderNewestFirst, shared.Pagination{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)
}

func TestService_Reverse_OnlyOnce(t *testing.T) {
	svc, a := newTestService(t, 2)
	actor := a.Actor(0)
	ctx := t.Context()
	saver := a.Members[1].ID

	member, group := entriesFor(a, saver, ledger.AccountSavings, "5000")
	pair, err := svc.PostLinked(ctx, actor, member, group)
	require.NoError(t, err)

	first, err := svc.Reverse(ctx, actor, pair.MemberEntry.ID, "entered on the wrong member")
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, actor, pair.MemberEntry.ID, "again")
	require.ErrorIs(t, err, shared.ErrEntryReversed)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, first.MemberEntry.ID.String(), domainErr.Details["reversal_entry_id"])

	_, err = svc.Reverse(ctx, actor, first.MemberEntry.ID, "undo the reversal")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	account, owner := ledger.AccountSavings, ledger.OwnerMember
	balance, err := svc.Balance(ctx, ledger.Filter{MemberID: &saver, OwnerType: &owner, AccountType: &account})
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "balance %s", balance)
}

func TestService_Reverse_RejectsSubLedgerAccounts(t *testing.T) {
	svc, a := newTestService(t, 2)
	actor := a.Actor(0)
	ctx := t.Context()

	for _, account := range []ledger.AccountType{ledger.AccountLoan, ledger.AccountSocialFund} {
		member, group := entriesFor(a, a.Members[1].ID, account, "-2000")
		pair, err := svc.PostLinked(ctx, actor, member, group)
		require.NoError(t, err)

		_, err = svc.Reverse(ctx, actor, pair.MemberEntry.ID, "manual fix")
		assert.ErrorIs(t, err, shared.ErrInvalidState, account)
	}

	page, err := svc.List(ctx, ledger.Filter{GroupID: &a.Group.ID}, ledger.OrderOldestFirst, shared.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total, "no reversal pairs were posted")
}

func TestEntryListFilter_ToDomain(t *testing.T) {
	groupID := uuid.New()
	filter, err := EntryListFilter{GroupID: groupID.String(), OwnerType: "member", AccountType: "savings"}.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, groupID, *filter.GroupID)
	assert.Equal(t, ledger.OwnerMember, *filter.OwnerType)
	assert.Equal(t, ledger.AccountSavings, *filter.AccountType)
	assert.Nil(t, filter.CycleID)

	_, err = EntryListFilter{}.ToDomain()
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = EntryListFilter{CycleID: "not-a-uuid"}.ToDomain()
	assert.ErrorIs(t, err, shared.ErrValidation)

	assert.Equal(t, ledger.OrderNewestFirst, EntryListFilter{OrderDir: "desc"}.Order())
	assert.Equal(t, ledger.OrderOldestFirst, EntryListFilter{}.Order())
}
