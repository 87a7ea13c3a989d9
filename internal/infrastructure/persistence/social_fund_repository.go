package persistence

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSocialFundRepository implements socialfund.Repository using GORM
type GormSocialFundRepository struct {
	db *gorm.DB
}

// NewGormSocialFundRepository creates a new GormSocialFundRepository
func NewGormSocialFundRepository(db *gorm.DB) *GormSocialFundRepository {
	return &GormSocialFundRepository{db: db}
}

// Create inserts a social fund movement
func (r *GormSocialFundRepository) Create(ctx context.Context, tx *socialfund.Transaction) error {
	return r.db.WithContext(ctx).Create(models.SocialFundTransactionModelFromDomain(tx)).Error
}

// Balance returns the signed sum of the group's movements, narrowed to a
// cycle when one is given
func (r *GormSocialFundRepository) Balance(ctx context.Context, groupID uuid.UUID, cycleID *uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).Model(&models.SocialFundTransactionModel{}).
		Where("group_id = ?", groupID)
	if cycleID != nil {
		query = query.Where("cycle_id = ?", *cycleID)
	}
	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return shared.RoundMoney(total), nil
}

// List returns a page of movements, newest first
func (r *GormSocialFundRepository) List(ctx context.Context, filter socialfund.Filter, page shared.Pagination) ([]socialfund.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SocialFundTransactionModel{}).
		Where("group_id = ?", filter.GroupID)
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Type != nil {
		query = query.Where("transaction_type = ?", string(*filter.Type))
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SocialFundTransactionModel
	if err := paginate(query, page).
		Order("transaction_date DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	txs := make([]socialfund.Transaction, len(rows))
	for i := range rows {
		txs[i] = rows[i].ToDomain()
	}
	return txs, total, nil
}

var _ socialfund.Repository = (*GormSocialFundRepository)(nil)
