package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLoanExposureProvider implements LoanExposureProvider with one
// aggregate query over the loans and cycles tables
type GormLoanExposureProvider struct {
	db *gorm.DB
}

// NewGormLoanExposureProvider creates a provider
func NewGormLoanExposureProvider(db *gorm.DB) *GormLoanExposureProvider {
	return &GormLoanExposureProvider{db: db}
}

// OutstandingByCycle sums the balance of active and defaulted loans per open
// cycle, largest exposure first
func (p *GormLoanExposureProvider) OutstandingByCycle(ctx context.Context, limit int) ([]LoanExposure, error) {
	type row struct {
		GroupID     uuid.UUID       `gorm:"column:group_id"`
		CycleID     uuid.UUID       `gorm:"column:cycle_id"`
		Outstanding decimal.Decimal `gorm:"column:outstanding"`
		ActiveLoans int64           `gorm:"column:active_loans"`
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("loans").
		Select("loans.group_id, loans.cycle_id, COALESCE(SUM(loans.balance), 0) AS outstanding, COUNT(*) AS active_loans").
		Joins("JOIN cycles ON cycles.id = loans.cycle_id").
		Where("cycles.status = ?", "open").
		Where("loans.status IN ?", []string{"active", "defaulted"}).
		Where("loans.balance > 0").
		Group("loans.group_id, loans.cycle_id").
		Order("outstanding DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]LoanExposure, len(rows))
	for i, r := range rows {
		out[i] = LoanExposure(r)
	}
	return out, nil
}
