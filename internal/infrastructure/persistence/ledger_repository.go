package persistence

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements ledger.EntryRepository using GORM.
// It only ever inserts; there is no update or delete path.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// CreatePair inserts both entries of a linked pair in one statement
func (r *GormLedgerEntryRepository) CreatePair(ctx context.Context, pair *ledger.LinkedPair) error {
	if pair == nil || pair.MemberEntry == nil || pair.GroupEntry == nil {
		return shared.ErrUnbalancedPair.WithMessage("linked pair is incomplete")
	}
	rows := []*models.LedgerEntryModel{
		models.LedgerEntryModelFromDomain(pair.MemberEntry),
		models.LedgerEntryModelFromDomain(pair.GroupEntry),
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByID finds an entry by its ID
func (r *GormLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDForUpdate finds an entry and locks its row. Reversals take this
// lock so two corrections of the same entry cannot both pass the check.
func (r *GormLedgerEntryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return r.findByID(ctx, forUpdate(r.db), id)
}

func (r *GormLedgerEntryRepository) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*ledger.Entry, error) {
	var m models.LedgerEntryModel
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrNotFound.WithMessage("ledger entry %s not found", id))
	}
	return m.ToDomain(), nil
}

// FindReversalOf returns the member entry reversing id, nil when there is none
func (r *GormLedgerEntryRepository) FindReversalOf(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).Where("reverses_entry_id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// Sum returns the signed sum of amounts matching the filter
func (r *GormLedgerEntryRepository) Sum(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return shared.RoundMoney(total), nil
}

type memberSumRow struct {
	MemberID uuid.UUID
	Total    decimal.Decimal
}

// SumByMember returns signed sums per member for the filter
func (r *GormLedgerEntryRepository) SumByMember(ctx context.Context, filter ledger.Filter) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []memberSumRow
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter).
		Where("member_id IS NOT NULL").
		Select("member_id, COALESCE(SUM(amount), 0) AS total").
		Group("member_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.MemberID] = shared.RoundMoney(row.Total)
	}
	return sums, nil
}

// List returns a page of entries and the total match count
func (r *GormLedgerEntryRepository) List(ctx context.Context, filter ledger.Filter, order ledger.Order, page shared.Pagination) ([]ledger.Entry, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if order == ledger.OrderOldestFirst {
		direction = "ASC"
	}
	var rows []models.LedgerEntryModel
	if err := paginate(query, page).
		Order("occurred_at " + direction).
		Order("created_at " + direction).
		Order("id " + direction).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter ledger.Filter) *gorm.DB {
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.MeetingID != nil {
		query = query.Where("meeting_id = ?", *filter.MeetingID)
	}
	if filter.OwnerType != nil {
		query = query.Where("owner_type = ?", string(*filter.OwnerType))
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.AccountType != nil {
		query = query.Where("account_type = ?", string(*filter.AccountType))
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	return query
}

var _ ledger.EntryRepository = (*GormLedgerEntryRepository)(nil)
