package meeting

import (
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// PlanStatus is the progress of an action plan
type PlanStatus string

const (
	PlanPending    PlanStatus = "pending"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanCancelled  PlanStatus = "cancelled"
)

// IsValid checks if the plan status is known
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanPending, PlanInProgress, PlanCompleted, PlanCancelled:
		return true
	}
	return false
}

// ActionPlan is a task agreed at a meeting and followed up at later ones
type ActionPlan struct {
	shared.BaseEntity
	GroupID          uuid.UUID
	CycleID          uuid.UUID
	MeetingID        uuid.UUID
	Description      string
	AssignedMemberID *uuid.UUID
	DueDate          *time.Time
	Status           PlanStatus
	LastNote         string
	UpdatedInMeeting *uuid.UUID
}

// NewActionPlan creates a pending plan from a batch record
func NewActionPlan(m *Meeting, r ActionPlanRecord) (*ActionPlan, error) {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return nil, shared.NewValidationError("description", "description is required")
	}
	plan := &ActionPlan{
		BaseEntity:       shared.NewBaseEntity(),
		GroupID:          m.GroupID,
		CycleID:          m.CycleID,
		MeetingID:        m.ID,
		Description:      desc,
		AssignedMemberID: r.AssignedMemberID,
		Status:           PlanPending,
	}
	if r.DueDate != "" {
		due, err := time.Parse(DateLayout, r.DueDate)
		if err != nil {
			return nil, shared.NewValidationError("due_date", "due date must be YYYY-MM-DD")
		}
		plan.DueDate = &due
	}
	return plan, nil
}

// ApplyUpdate records progress reported at a later meeting
func (p *ActionPlan) ApplyUpdate(meetingID uuid.UUID, u ActionPlanUpdate) error {
	status := PlanStatus(u.Status)
	if !status.IsValid() {
		return shared.NewValidationError("status", "unknown action plan status")
	}
	if p.Status == PlanCompleted || p.Status == PlanCancelled {
		return shared.ErrInvalidState.WithMessage("action plan %s is already %s", p.ID, p.Status)
	}
	p.Status = status
	p.LastNote = strings.TrimSpace(u.Note)
	p.UpdatedInMeeting = &meetingID
	p.Touch()
	return nil
}
