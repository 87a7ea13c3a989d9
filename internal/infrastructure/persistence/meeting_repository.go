package persistence

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMeetingRepository implements meeting.MeetingRepository using GORM
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GormMeetingRepository
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// CreateIfAbsent inserts the meeting unless a row with its local_id exists.
// The unique index on local_id decides races between concurrent submissions.
func (r *GormMeetingRepository) CreateIfAbsent(ctx context.Context, m *meeting.Meeting) (bool, error) {
	row, err := models.MeetingModelFromDomain(m)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "local_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Save updates the meeting
func (r *GormMeetingRepository) Save(ctx context.Context, m *meeting.Meeting) error {
	row, err := models.MeetingModelFromDomain(m)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(row).Error
}

// FindByID finds a meeting by its ID
func (r *GormMeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*meeting.Meeting, error) {
	return r.findWhere(ctx, r.db, "id = ?", id)
}

// FindByIDForUpdate finds a meeting and locks its row
func (r *GormMeetingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*meeting.Meeting, error) {
	return r.findWhere(ctx, forUpdate(r.db), "id = ?", id)
}

// FindByLocalID finds a meeting by the client-generated local id
func (r *GormMeetingRepository) FindByLocalID(ctx context.Context, localID string) (*meeting.Meeting, error) {
	return r.findWhere(ctx, r.db, "local_id = ?", localID)
}

func (r *GormMeetingRepository) findWhere(ctx context.Context, db *gorm.DB, cond string, arg any) (*meeting.Meeting, error) {
	var m models.MeetingModel
	if err := db.WithContext(ctx).Where(cond, arg).First(&m).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrMeetingNotFound)
	}
	return m.ToDomain()
}

// MaxMeetingNumber returns the highest meeting number used in the cycle
func (r *GormMeetingRepository) MaxMeetingNumber(ctx context.Context, cycleID uuid.UUID) (int, error) {
	var maxNumber int
	if err := r.db.WithContext(ctx).
		Model(&models.MeetingModel{}).
		Where("cycle_id = ?", cycleID).
		Select("COALESCE(MAX(meeting_number), 0)").
		Row().Scan(&maxNumber); err != nil {
		return 0, err
	}
	return maxNumber, nil
}

// List returns a page of meetings, most recent first
func (r *GormMeetingRepository) List(ctx context.Context, filter meeting.Filter, page shared.Pagination) ([]meeting.Meeting, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MeetingModel{})
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.Status != nil {
		query = query.Where("processing_status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.SortBy, MeetingSortFields, "meeting_date")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var rows []models.MeetingModel
	if err := paginate(query, page).
		Order(sortField + " " + sortOrder).
		Order("meeting_number " + sortOrder).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for i := range rows {
		m, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		meetings = append(meetings, *m)
	}
	return meetings, total, nil
}

// ReplaceAttendance swaps the meeting's attendance rows for the given set
func (r *GormMeetingRepository) ReplaceAttendance(ctx context.Context, meetingID uuid.UUID, rows []meeting.Attendance) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("meeting_id = ?", meetingID).Delete(&models.MeetingAttendanceModel{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	records := make([]models.MeetingAttendanceModel, len(rows))
	for i, a := range rows {
		records[i] = models.MeetingAttendanceModelFromDomain(a)
	}
	return db.Create(&records).Error
}

// ListAttendance returns the attendance rows of a meeting
func (r *GormMeetingRepository) ListAttendance(ctx context.Context, meetingID uuid.UUID) ([]meeting.Attendance, error) {
	var rows []models.MeetingAttendanceModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]meeting.Attendance, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CreateActionPlan inserts an action plan
func (r *GormMeetingRepository) CreateActionPlan(ctx context.Context, p *meeting.ActionPlan) error {
	return r.db.WithContext(ctx).Create(models.ActionPlanModelFromDomain(p)).Error
}

// SaveActionPlan updates an action plan
func (r *GormMeetingRepository) SaveActionPlan(ctx context.Context, p *meeting.ActionPlan) error {
	return r.db.WithContext(ctx).Save(models.ActionPlanModelFromDomain(p)).Error
}

// FindActionPlan finds an action plan by its ID
func (r *GormMeetingRepository) FindActionPlan(ctx context.Context, id uuid.UUID) (*meeting.ActionPlan, error) {
	var m models.ActionPlanModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrNotFound.WithMessage("action plan %s not found", id))
	}
	return m.ToDomain(), nil
}

// ListActionPlans returns the cycle's action plans, oldest first
func (r *GormMeetingRepository) ListActionPlans(ctx context.Context, cycleID uuid.UUID) ([]meeting.ActionPlan, error) {
	var rows []models.ActionPlanModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	plans := make([]meeting.ActionPlan, len(rows))
	for i := range rows {
		plans[i] = *rows[i].ToDomain()
	}
	return plans, nil
}

var _ meeting.MeetingRepository = (*GormMeetingRepository)(nil)
