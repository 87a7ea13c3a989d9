package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens a migrated in-memory database pinned to one connection
func newSQLiteDB(t *testing.T) *gorm.DB {
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

// newMockDB returns a postgres-dialect gorm handle backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

type fixture struct {
	group  *group.Group
	cycle  *group.Cycle
	member *group.Member
}

// seedGroup creates a group with an active cycle and one member
func seedGroup(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := t.Context()
	g, err := group.NewGroup("Tumaini Women", "TUM-"+time.Now().Format("150405.000000"), group.CategoryVSLA)
	require.NoError(t, err)
	require.NoError(t, NewGormGroupRepository(db).Create(ctx, g))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := group.NewCycle(g.ID, "2026 cycle", group.CycleTypeSavingsAssociation, group.SavingTypeFixedShare,
		decimal.NewFromInt(1000), start, start.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, NewGormCycleRepository(db).Create(ctx, c))

	m, err := group.NewMember(g.ID, "Amina", "+255700000001", group.RoleTreasurer)
	require.NoError(t, err)
	require.NoError(t, NewGormMemberRepository(db).Create(ctx, m))

	return fixture{group: g, cycle: c, member: m}
}
