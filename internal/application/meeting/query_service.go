package meeting

import (
	"context"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// QueryService reads meetings
type QueryService struct {
	scope txscope.TransactionScope
}

// NewQueryService creates a new meeting query service
func NewQueryService(scope txscope.TransactionScope) *QueryService {
	return &QueryService{scope: scope}
}

// Get returns a meeting with its attendance
func (s *QueryService) Get(ctx context.Context, id uuid.UUID) (*MeetingResponse, error) {
	repos := s.scope.Repositories()
	m, err := repos.MeetingRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := repos.MeetingRepo().ListAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMeetingResponse(m)
	resp.Attendance = make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		resp.Attendance[i] = AttendanceResponse{MemberID: r.MemberID, Present: r.Present, Note: r.Note}
	}
	return &resp, nil
}

// List returns a page of meetings, most recent first
func (s *QueryService) List(ctx context.Context, filter meeting.Filter, page shared.Pagination) (shared.Paginated[MeetingResponse], error) {
	page = page.Normalize()
	meetings, total, err := s.scope.Repositories().MeetingRepo().List(ctx, filter, page)
	if err != nil {
		return shared.Paginated[MeetingResponse]{}, err
	}
	items := make([]MeetingResponse, len(meetings))
	for i := range meetings {
		items[i] = ToMeetingResponse(&meetings[i])
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}

// ActionPlans returns the action plans of a cycle
func (s *QueryService) ActionPlans(ctx context.Context, cycleID uuid.UUID) ([]ActionPlanResponse, error) {
	plans, err := s.scope.Repositories().MeetingRepo().ListActionPlans(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	resp := make([]ActionPlanResponse, len(plans))
	for i := range plans {
		resp[i] = ToActionPlanResponse(&plans[i])
	}
	return resp, nil
}
