package txscope

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
	// Repositories returns repositories outside of any transaction, for reads
	Repositories() TransactionalRepositories
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - LedgerRepo is append-only; linked pairs are inserted together.
//   - LoanRepo owns both loans and their transaction trail; the trail is appended
//     and the projection saved in the same transaction.
//   - MeetingRepo owns attendance and action plans, which have no ledger effect.
type TransactionalRepositories interface {
	GroupRepo() group.GroupRepository
	CycleRepo() group.CycleRepository
	MemberRepo() group.MemberRepository
	LedgerRepo() ledger.EntryRepository
	LoanRepo() loan.LoanRepository
	SocialFundRepo() socialfund.Repository
	MeetingRepo() meeting.MeetingRepository
	ShareoutRepo() shareout.ShareoutRepository

	// Nested runs fn in a nested unit of work (a savepoint inside a
	// transaction). An error from fn undoes only the nested work.
	Nested(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// Repositories bundles repository implementations
type Repositories struct {
	Groups     group.GroupRepository
	Cycles     group.CycleRepository
	Members    group.MemberRepository
	Ledger     ledger.EntryRepository
	Loans      loan.LoanRepository
	SocialFund socialfund.Repository
	Meetings   meeting.MeetingRepository
	Shareouts  shareout.ShareoutRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Repositories returns the scope itself
func (s *NoOpTransactionScope) Repositories() TransactionalRepositories {
	return s
}

// Nested runs fn directly; nothing is undone on error.
func (s *NoOpTransactionScope) Nested(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) GroupRepo() group.GroupRepository       { return s.repos.Groups }
func (s *NoOpTransactionScope) CycleRepo() group.CycleRepository       { return s.repos.Cycles }
func (s *NoOpTransactionScope) MemberRepo() group.MemberRepository     { return s.repos.Members }
func (s *NoOpTransactionScope) LedgerRepo() ledger.EntryRepository     { return s.repos.Ledger }
func (s *NoOpTransactionScope) LoanRepo() loan.LoanRepository          { return s.repos.Loans }
func (s *NoOpTransactionScope) SocialFundRepo() socialfund.Repository  { return s.repos.SocialFund }
func (s *NoOpTransactionScope) MeetingRepo() meeting.MeetingRepository { return s.repos.Meetings }
func (s *NoOpTransactionScope) ShareoutRepo() shareout.ShareoutRepository {
	return s.repos.Shareouts
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
