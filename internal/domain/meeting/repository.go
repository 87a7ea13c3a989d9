package meeting

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter selects meetings
type Filter struct {
	GroupID   *uuid.UUID
	CycleID   *uuid.UUID
	Status    *ProcessingStatus
	// SortBy names a column; unknown names fall back to meeting date
	SortBy    string
	SortOrder string
}

// MeetingRepository persists meetings, attendance and action plans
type MeetingRepository interface {
	// CreateIfAbsent inserts the meeting unless its local_id exists. It
	// returns false when another submission already owns the local_id.
	CreateIfAbsent(ctx context.Context, m *Meeting) (bool, error)
	Save(ctx context.Context, m *Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*Meeting, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Meeting, error)
	FindByLocalID(ctx context.Context, localID string) (*Meeting, error)
	// MaxMeetingNumber returns the highest number used in the cycle, 0 if none
	MaxMeetingNumber(ctx context.Context, cycleID uuid.UUID) (int, error)
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]Meeting, int64, error)

	ReplaceAttendance(ctx context.Context, meetingID uuid.UUID, rows []Attendance) error
	ListAttendance(ctx context.Context, meetingID uuid.UUID) ([]Attendance, error)

	CreateActionPlan(ctx context.Context, p *ActionPlan) error
	SaveActionPlan(ctx context.Context, p *ActionPlan) error
	FindActionPlan(ctx context.Context, id uuid.UUID) (*ActionPlan, error)
	ListActionPlans(ctx context.Context, cycleID uuid.UUID) ([]ActionPlan, error)
}
