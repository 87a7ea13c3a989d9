package persistence

import (
	"context"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txscope.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Repositories returns repositories bound to the pool rather than a transaction
func (s *GormTransactionScope) Repositories() txscope.TransactionalRepositories {
	return &gormTransactionalRepositories{tx: s.db}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Nested runs fn inside a savepoint. gorm turns Transaction on an open
// transaction into SAVEPOINT / ROLLBACK TO SAVEPOINT.
func (r *gormTransactionalRepositories) Nested(ctx context.Context, fn func(repos txscope.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

func (r *gormTransactionalRepositories) GroupRepo() group.GroupRepository {
	return NewGormGroupRepository(r.tx)
}

func (r *gormTransactionalRepositories) CycleRepo() group.CycleRepository {
	return NewGormCycleRepository(r.tx)
}

func (r *gormTransactionalRepositories) MemberRepo() group.MemberRepository {
	return NewGormMemberRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerRepo() ledger.EntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) LoanRepo() loan.LoanRepository {
	return NewGormLoanRepository(r.tx)
}

func (r *gormTransactionalRepositories) SocialFundRepo() socialfund.Repository {
	return NewGormSocialFundRepository(r.tx)
}

func (r *gormTransactionalRepositories) MeetingRepo() meeting.MeetingRepository {
	return NewGormMeetingRepository(r.tx)
}

func (r *gormTransactionalRepositories) ShareoutRepo() shareout.ShareoutRepository {
	return NewGormShareoutRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ txscope.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ txscope.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
