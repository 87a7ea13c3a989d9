package testutil

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CycleStart is the start date of every seeded cycle
var CycleStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// NewSQLiteDB opens a migrated in-memory database. The pool is pinned to one
// connection so every query sees the same in-memory schema.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Association is a seeded VSLA group with an open cycle
type Association struct {
	DB      *gorm.DB
	Group   *group.Group
	Cycle   *group.Cycle
	Members []*group.Member
}

// Chair returns the first member, who is seeded as chairperson
func (a *Association) Chair() *group.Member {
	return a.Members[0]
}

// Actor returns an actor bound to the i-th member
func (a *Association) Actor(i int) shared.Actor {
	m := a.Members[i]
	userID := uuid.New()
	if m.UserID != nil {
		userID = *m.UserID
	}
	return shared.NewActor(userID).WithMember(m.ID, a.Group.ID)
}

// SeedAssociation creates a VSLA group, an open fixed-share cycle with a share
// unit value of 1000 and the given number of members. The first member is the
// chairperson and is linked to a user account.
func SeedAssociation(t *testing.T, db *gorm.DB, members int) *Association {
	t.Helper()
	ctx := t.Context()

	g, err := group.NewGroup(gofakeit.Company()+" VSLA", "G"+gofakeit.DigitN(6), group.CategoryVSLA)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormGroupRepository(db).Create(ctx, g))

	c, err := group.NewCycle(g.ID, "Cycle 2026", group.CycleTypeSavingsAssociation, group.SavingTypeFixedShare,
		decimal.NewFromInt(1000), CycleStart, CycleStart.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCycleRepository(db).Create(ctx, c))

	a := &Association{DB: db, Group: g, Cycle: c}
	memberRepo := persistence.NewGormMemberRepository(db)
	for i := range members {
		role := group.RoleMember
		if i == 0 {
			role = group.RoleChairperson
		}
		m, err := group.NewMember(g.ID, gofakeit.Name(), gofakeit.Phone(), role)
		require.NoError(t, err)
		if i == 0 {
			m.LinkUser(uuid.New())
		}
		require.NoError(t, memberRepo.Create(ctx, m))
		a.Members = append(a.Members, m)
	}
	return a
}

// Money parses a decimal literal
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
