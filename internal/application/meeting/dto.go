package meeting

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// MeetingResponse represents a processed or pending meeting in API responses
type MeetingResponse struct {
	ID                 uuid.UUID            `json:"id"`
	LocalID            string               `json:"local_id"`
	GroupID            uuid.UUID            `json:"group_id"`
	CycleID            uuid.UUID            `json:"cycle_id"`
	MeetingDate        time.Time            `json:"meeting_date"`
	MeetingNumber      int                  `json:"meeting_number"`
	MembersPresent     int                  `json:"members_present"`
	MembersAbsent      int                  `json:"members_absent"`
	Notes              string               `json:"notes,omitempty"`
	ProcessingStatus   string               `json:"processing_status"`
	HasErrors          bool                 `json:"has_errors"`
	HasWarnings        bool                 `json:"has_warnings"`
	Errors             []meeting.Issue      `json:"errors"`
	Warnings           []meeting.Issue      `json:"warnings"`
	Totals             meeting.Totals       `json:"totals"`
	ProcessingAttempts int                  `json:"processing_attempts"`
	FailureReason      string               `json:"failure_reason,omitempty"`
	ProcessedAt        *time.Time           `json:"processed_at,omitempty"`
	Attendance         []AttendanceResponse `json:"attendance,omitempty"`
	CreatedBy          uuid.UUID            `json:"created_by"`
	CreatedAt          time.Time            `json:"created_at"`
}

// AttendanceResponse is one attendance row
type AttendanceResponse struct {
	MemberID uuid.UUID `json:"member_id"`
	Present  bool      `json:"present"`
	Note     string    `json:"note,omitempty"`
}

// ActionPlanResponse represents an action plan in API responses
type ActionPlanResponse struct {
	ID               uuid.UUID  `json:"id"`
	MeetingID        uuid.UUID  `json:"meeting_id"`
	Description      string     `json:"description"`
	AssignedMemberID *uuid.UUID `json:"assigned_member_id,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           string     `json:"status"`
	LastNote         string     `json:"last_note,omitempty"`
}

// MeetingListFilter represents filter options for meeting lists
type MeetingListFilter struct {
	GroupID   string `form:"group_id"`
	CycleID   string `form:"cycle_id"`
	Status    string `form:"processing_status" binding:"omitempty,oneof=pending processing completed failed needs_review"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query filter to a repository filter. A group or a
// cycle is required.
func (f MeetingListFilter) ToDomain() (meeting.Filter, error) {
	filter := meeting.Filter{SortBy: f.SortBy, SortOrder: f.SortOrder}
	var err error
	if filter.GroupID, err = shared.ParseOptionalID("group_id", f.GroupID); err != nil {
		return filter, err
	}
	if filter.CycleID, err = shared.ParseOptionalID("cycle_id", f.CycleID); err != nil {
		return filter, err
	}
	if filter.GroupID == nil && filter.CycleID == nil {
		return filter, shared.NewValidationError("cycle_id", "group_id or cycle_id is required")
	}
	if f.Status != "" {
		status := meeting.ProcessingStatus(f.Status)
		filter.Status = &status
	}
	return filter, nil
}

// Pagination returns the requested page
func (f MeetingListFilter) Pagination() shared.Pagination {
	return shared.Pagination{Page: f.Page, PageSize: f.PageSize}.Normalize()
}

// ToMeetingResponse converts a domain meeting to a response
func ToMeetingResponse(m *meeting.Meeting) MeetingResponse {
	errs := m.Errors
	if errs == nil {
		errs = []meeting.Issue{}
	}
	warns := m.Warnings
	if warns == nil {
		warns = []meeting.Issue{}
	}
	return MeetingResponse{
		ID:                 m.ID,
		LocalID:            m.LocalID,
		GroupID:            m.GroupID,
		CycleID:            m.CycleID,
		MeetingDate:        m.MeetingDate,
		MeetingNumber:      m.MeetingNumber,
		MembersPresent:     m.MembersPresent,
		MembersAbsent:      m.MembersAbsent,
		Notes:              m.Notes,
		ProcessingStatus:   string(m.ProcessingStatus),
		HasErrors:          m.HasErrors,
		HasWarnings:        m.HasWarnings,
		Errors:             errs,
		Warnings:           warns,
		Totals:             m.Totals,
		ProcessingAttempts: m.ProcessingAttempts,
		FailureReason:      m.FailureReason,
		ProcessedAt:        m.ProcessedAt,
		CreatedBy:          m.CreatedBy,
		CreatedAt:          m.CreatedAt,
	}
}

// ToActionPlanResponse converts a domain action plan to a response
func ToActionPlanResponse(p *meeting.ActionPlan) ActionPlanResponse {
	return ActionPlanResponse{
		ID:               p.ID,
		MeetingID:        p.MeetingID,
		Description:      p.Description,
		AssignedMemberID: p.AssignedMemberID,
		DueDate:          p.DueDate,
		Status:           string(p.Status),
		LastNote:         p.LastNote,
	}
}
