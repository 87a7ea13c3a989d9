package telemetry

import (
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newExposureDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.CycleModel{}, &models.LoanModel{}))
	return db
}

func seedCycle(t *testing.T, db *gorm.DB, groupID uuid.UUID, status string) uuid.UUID {
	t.Helper()
	now := time.Now()
	c := &models.CycleModel{
		GroupID:        groupID,
		Name:           "2026",
		CycleType:      "regular",
		SavingType:     "fixed_share",
		ShareUnitValue: decimal.NewFromInt(1000),
		StartDate:      now.AddDate(0, -6, 0),
		EndDate:        now.AddDate(0, 6, 0),
		IsActiveCycle:  status == "open",
		Status:         status,
	}
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	require.NoError(t, db.Create(c).Error)
	return c.ID
}

func seedLoan(t *testing.T, db *gorm.DB, groupID, cycleID uuid.UUID, status string, balance int64) {
	t.Helper()
	now := time.Now()
	l := &models.LoanModel{
		GroupID:          groupID,
		CycleID:          cycleID,
		BorrowerID:       uuid.New(),
		LoanAmount:       decimal.NewFromInt(balance + 1000),
		DurationMonths:   3,
		TotalAmountDue:   decimal.NewFromInt(balance + 1000),
		Balance:          decimal.NewFromInt(balance),
		DisbursementDate: now,
		DueDate:          now.AddDate(0, 3, 0),
		Status:           status,
	}
	l.ID = uuid.New()
	l.CreatedAt, l.UpdatedAt = now, now
	require.NoError(t, db.Create(l).Error)
}

func TestGormLoanExposureProvider_OutstandingByCycle(t *testing.T) {
	db := newExposureDB(t)
	groupA, groupB := uuid.New(), uuid.New()

	openA := seedCycle(t, db, groupA, "open")
	seedLoan(t, db, groupA, openA, "active", 30000)
	seedLoan(t, db, groupA, openA, "defaulted", 20000)
	seedLoan(t, db, groupA, openA, "paid", 0)

	openB := seedCycle(t, db, groupB, "open")
	seedLoan(t, db, groupB, openB, "active", 7000)

	closed := seedCycle(t, db, groupB, "closed")
	seedLoan(t, db, groupB, closed, "active", 99000)

	exposures, err := NewGormLoanExposureProvider(db).OutstandingByCycle(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, exposures, 2)

	assert.Equal(t, openA, exposures[0].CycleID)
	assert.Equal(t, groupA, exposures[0].GroupID)
	assert.True(t, decimal.NewFromInt(50000).Equal(exposures[0].Outstanding), exposures[0].Outstanding.String())
	assert.Equal(t, int64(2), exposures[0].ActiveLoans)

	assert.Equal(t, openB, exposures[1].CycleID)
	assert.True(t, decimal.NewFromInt(7000).Equal(exposures[1].Outstanding))

	limited, err := NewGormLoanExposureProvider(db).OutstandingByCycle(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
