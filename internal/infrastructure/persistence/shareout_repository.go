package persistence

import (
	"context"
	"errors"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShareoutRepository implements shareout.ShareoutRepository using GORM
type GormShareoutRepository struct {
	db *gorm.DB
}

// NewGormShareoutRepository creates a new GormShareoutRepository
func NewGormShareoutRepository(db *gorm.DB) *GormShareoutRepository {
	return &GormShareoutRepository{db: db}
}

// Create inserts a new shareout
func (r *GormShareoutRepository) Create(ctx context.Context, s *shareout.Shareout) error {
	return r.db.WithContext(ctx).Create(models.ShareoutModelFromDomain(s)).Error
}

// Save updates a shareout
func (r *GormShareoutRepository) Save(ctx context.Context, s *shareout.Shareout) error {
	return r.db.WithContext(ctx).Save(models.ShareoutModelFromDomain(s)).Error
}

// FindByID finds a shareout by its ID
func (r *GormShareoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*shareout.Shareout, error) {
	return r.find(ctx, r.db, id)
}

// FindByIDForUpdate finds a shareout and locks its row
func (r *GormShareoutRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*shareout.Shareout, error) {
	return r.find(ctx, forUpdate(r.db), id)
}

func (r *GormShareoutRepository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*shareout.Shareout, error) {
	var m models.ShareoutModel
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrShareoutNotFound)
	}
	return m.ToDomain(), nil
}

// FindLiveByCycle returns the cycle's non-terminal shareout, or nil
func (r *GormShareoutRepository) FindLiveByCycle(ctx context.Context, cycleID uuid.UUID) (*shareout.Shareout, error) {
	live := make([]string, len(shareout.LiveStatuses))
	for i, s := range shareout.LiveStatuses {
		live[i] = string(s)
	}
	var m models.ShareoutModel
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND status IN ?", cycleID, live).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// List returns a page of shareouts, newest first
func (r *GormShareoutRepository) List(ctx context.Context, filter shareout.Filter, page shared.Pagination) ([]shareout.Shareout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShareoutModel{})
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ShareoutModel
	if err := paginate(query, page).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]shareout.Shareout, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ReplaceDistributions deletes the shareout's distributions and inserts ds
func (r *GormShareoutRepository) ReplaceDistributions(ctx context.Context, shareoutID uuid.UUID, ds []shareout.Distribution) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("shareout_id = ?", shareoutID).Delete(&models.ShareoutDistributionModel{}).Error; err != nil {
		return err
	}
	if len(ds) == 0 {
		return nil
	}
	rows := make([]*models.ShareoutDistributionModel, len(ds))
	for i := range ds {
		rows[i] = models.ShareoutDistributionModelFromDomain(&ds[i])
	}
	return db.CreateInBatches(&rows, 200).Error
}

// ListDistributions returns the shareout's distributions ordered by member name
func (r *GormShareoutRepository) ListDistributions(ctx context.Context, shareoutID uuid.UUID) ([]shareout.Distribution, error) {
	var rows []models.ShareoutDistributionModel
	if err := r.db.WithContext(ctx).
		Where("shareout_id = ?", shareoutID).
		Order("member_name").
		Order("member_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]shareout.Distribution, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// SaveDistributions updates payment state of existing distributions
func (r *GormShareoutRepository) SaveDistributions(ctx context.Context, ds []shareout.Distribution) error {
	db := r.db.WithContext(ctx)
	for i := range ds {
		if err := db.Model(&models.ShareoutDistributionModel{}).
			Where("id = ?", ds[i].ID).
			Updates(map[string]interface{}{
				"payment_status":       string(ds[i].PaymentStatus),
				"paid_at":              ds[i].PaidAt,
				"carried_forward_debt": ds[i].CarriedForwardDebt,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

var _ shareout.ShareoutRepository = (*GormShareoutRepository)(nil)
