package persistence

import (
	"context"
	"errors"

	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mapNotFound converts gorm's record-not-found into the given domain error
func mapNotFound(err error, notFound *shared.DomainError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// forUpdate adds a row lock to the query. Dialects without FOR UPDATE
// (sqlite) drop the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// paginate applies offset and limit for the normalized page
func paginate(db *gorm.DB, page shared.Pagination) *gorm.DB {
	p := page.Normalize()
	return db.Offset(p.Offset()).Limit(p.PageSize)
}

// GormGroupRepository implements group.GroupRepository using GORM
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Create inserts a new group
func (r *GormGroupRepository) Create(ctx context.Context, g *group.Group) error {
	return r.db.WithContext(ctx).Create(models.GroupModelFromDomain(g)).Error
}

// FindByID finds a group by its ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	return r.find(ctx, r.db, id)
}

// FindByIDForUpdate finds a group and locks its row
func (r *GormGroupRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	return r.find(ctx, forUpdate(r.db), id)
}

func (r *GormGroupRepository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*group.Group, error) {
	var m models.GroupModel
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrGroupNotFound)
	}
	return m.ToDomain(), nil
}

// GormCycleRepository implements group.CycleRepository using GORM
type GormCycleRepository struct {
	db *gorm.DB
}

// NewGormCycleRepository creates a new GormCycleRepository
func NewGormCycleRepository(db *gorm.DB) *GormCycleRepository {
	return &GormCycleRepository{db: db}
}

// Create inserts a new cycle
func (r *GormCycleRepository) Create(ctx context.Context, c *group.Cycle) error {
	return r.db.WithContext(ctx).Create(models.CycleModelFromDomain(c)).Error
}

// Save updates a cycle
func (r *GormCycleRepository) Save(ctx context.Context, c *group.Cycle) error {
	return r.db.WithContext(ctx).Save(models.CycleModelFromDomain(c)).Error
}

// FindByID finds a cycle by its ID
func (r *GormCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*group.Cycle, error) {
	return r.find(ctx, r.db, id)
}

// FindByIDForUpdate finds a cycle and locks its row
func (r *GormCycleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*group.Cycle, error) {
	return r.find(ctx, forUpdate(r.db), id)
}

func (r *GormCycleRepository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*group.Cycle, error) {
	var m models.CycleModel
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrCycleNotFound)
	}
	return m.ToDomain(), nil
}

// FindActiveByGroup returns the group's active cycle
func (r *GormCycleRepository) FindActiveByGroup(ctx context.Context, groupID uuid.UUID) (*group.Cycle, error) {
	var m models.CycleModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_active_cycle = ?", groupID, true).
		Order("start_date DESC").
		First(&m).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrCycleNotFound)
	}
	return m.ToDomain(), nil
}

// ListByGroup returns all cycles of a group, newest first
func (r *GormCycleRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]group.Cycle, error) {
	var rows []models.CycleModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("start_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	cycles := make([]group.Cycle, len(rows))
	for i := range rows {
		cycles[i] = *rows[i].ToDomain()
	}
	return cycles, nil
}

// GormMemberRepository implements group.MemberRepository using GORM
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// Create inserts a new member
func (r *GormMemberRepository) Create(ctx context.Context, m *group.Member) error {
	return r.db.WithContext(ctx).Create(models.MemberModelFromDomain(m)).Error
}

// FindByID finds a member by its ID
func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*group.Member, error) {
	var m models.MemberModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrMemberNotFound)
	}
	return m.ToDomain(), nil
}

// FindByGroup returns the members of a group ordered by name
func (r *GormMemberRepository) FindByGroup(ctx context.Context, groupID uuid.UUID) ([]group.Member, error) {
	var rows []models.MemberModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	members := make([]group.Member, len(rows))
	for i := range rows {
		members[i] = *rows[i].ToDomain()
	}
	return members, nil
}

// FindByGroupAndUser finds the membership of a user in a group
func (r *GormMemberRepository) FindByGroupAndUser(ctx context.Context, groupID, userID uuid.UUID) (*group.Member, error) {
	var m models.MemberModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrMemberNotFound)
	}
	return m.ToDomain(), nil
}

var (
	_ group.GroupRepository  = (*GormGroupRepository)(nil)
	_ group.CycleRepository  = (*GormCycleRepository)(nil)
	_ group.MemberRepository = (*GormMemberRepository)(nil)
)
