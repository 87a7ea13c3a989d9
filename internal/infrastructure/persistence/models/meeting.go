package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingModel is the persistence model for the Meeting aggregate root
type MeetingModel struct {
	AggregateModel
	LocalID            string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	GroupID            uuid.UUID `gorm:"type:uuid;not null;index"`
	CycleID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_meeting_cycle_number,priority:1"`
	MeetingNumber      int       `gorm:"not null;uniqueIndex:idx_meeting_cycle_number,priority:2"`
	MeetingDate        time.Time `gorm:"type:date;not null"`
	MembersPresent     int       `gorm:"not null;default:0"`
	MembersAbsent      int       `gorm:"not null;default:0"`
	Notes              string    `gorm:"type:text"`
	ProcessingStatus   string    `gorm:"type:varchar(20);not null;index"`
	HasErrors          bool      `gorm:"not null;default:false"`
	HasWarnings        bool      `gorm:"not null;default:false"`
	Errors             datatypes.JSON
	Warnings           datatypes.JSON
	Totals             datatypes.JSON
	PostedItems        datatypes.JSON
	RawBatchPayload    datatypes.JSON
	CreatedBy          uuid.UUID `gorm:"type:uuid"`
	ProcessedAt        *time.Time
	ProcessingAttempts int    `gorm:"not null;default:0"`
	FailureReason      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (MeetingModel) TableName() string {
	return "meetings"
}

// ToDomain converts the persistence model to a domain Meeting
func (m *MeetingModel) ToDomain() (*meeting.Meeting, error) {
	mt := &meeting.Meeting{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		LocalID:            m.LocalID,
		GroupID:            m.GroupID,
		CycleID:            m.CycleID,
		MeetingDate:        m.MeetingDate,
		MeetingNumber:      m.MeetingNumber,
		MembersPresent:     m.MembersPresent,
		MembersAbsent:      m.MembersAbsent,
		Notes:              m.Notes,
		ProcessingStatus:   meeting.ProcessingStatus(m.ProcessingStatus),
		HasErrors:          m.HasErrors,
		HasWarnings:        m.HasWarnings,
		Totals:             meeting.ZeroTotals(),
		RawBatchPayload:    []byte(m.RawBatchPayload),
		CreatedBy:          m.CreatedBy,
		ProcessedAt:        m.ProcessedAt,
		ProcessingAttempts: m.ProcessingAttempts,
		FailureReason:      m.FailureReason,
	}
	if err := unmarshalOptional(m.Errors, &mt.Errors); err != nil {
		return nil, fmt.Errorf("meeting %s errors: %w", m.ID, err)
	}
	if err := unmarshalOptional(m.Warnings, &mt.Warnings); err != nil {
		return nil, fmt.Errorf("meeting %s warnings: %w", m.ID, err)
	}
	if err := unmarshalOptional(m.Totals, &mt.Totals); err != nil {
		return nil, fmt.Errorf("meeting %s totals: %w", m.ID, err)
	}
	if err := unmarshalOptional(m.PostedItems, &mt.PostedItems); err != nil {
		return nil, fmt.Errorf("meeting %s posted items: %w", m.ID, err)
	}
	return mt, nil
}

// MeetingModelFromDomain creates a persistence model from a domain Meeting
func MeetingModelFromDomain(mt *meeting.Meeting) (*MeetingModel, error) {
	m := &MeetingModel{
		LocalID:            mt.LocalID,
		GroupID:            mt.GroupID,
		CycleID:            mt.CycleID,
		MeetingNumber:      mt.MeetingNumber,
		MeetingDate:        mt.MeetingDate,
		MembersPresent:     mt.MembersPresent,
		MembersAbsent:      mt.MembersAbsent,
		Notes:              mt.Notes,
		ProcessingStatus:   string(mt.ProcessingStatus),
		HasErrors:          mt.HasErrors,
		HasWarnings:        mt.HasWarnings,
		CreatedBy:          mt.CreatedBy,
		ProcessedAt:        mt.ProcessedAt,
		ProcessingAttempts: mt.ProcessingAttempts,
		FailureReason:      mt.FailureReason,
	}
	m.FromDomainAggregateRoot(mt.BaseAggregateRoot)
	if len(mt.RawBatchPayload) > 0 {
		m.RawBatchPayload = datatypes.JSON(mt.RawBatchPayload)
	}
	var err error
	if m.Errors, err = marshalJSON(emptyIfNil(mt.Errors)); err != nil {
		return nil, err
	}
	if m.Warnings, err = marshalJSON(emptyIfNil(mt.Warnings)); err != nil {
		return nil, err
	}
	if m.Totals, err = marshalJSON(mt.Totals); err != nil {
		return nil, err
	}
	posted := mt.PostedItems
	if posted == nil {
		posted = []string{}
	}
	if m.PostedItems, err = marshalJSON(posted); err != nil {
		return nil, err
	}
	return m, nil
}

func emptyIfNil(issues []meeting.Issue) []meeting.Issue {
	if issues == nil {
		return []meeting.Issue{}
	}
	return issues
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func unmarshalOptional(raw datatypes.JSON, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// MeetingAttendanceModel is the persistence model for attendance rows
type MeetingAttendanceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	MeetingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_meeting_member,priority:1"`
	MemberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_meeting_member,priority:2"`
	Present   bool      `gorm:"not null"`
	Note      string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (MeetingAttendanceModel) TableName() string {
	return "meeting_attendance"
}

// ToDomain converts the persistence model to a domain Attendance
func (m *MeetingAttendanceModel) ToDomain() meeting.Attendance {
	return meeting.Attendance{ID: m.ID, MeetingID: m.MeetingID, MemberID: m.MemberID, Present: m.Present, Note: m.Note}
}

// MeetingAttendanceModelFromDomain creates a persistence model from a domain Attendance
func MeetingAttendanceModelFromDomain(a meeting.Attendance) MeetingAttendanceModel {
	return MeetingAttendanceModel{ID: a.ID, MeetingID: a.MeetingID, MemberID: a.MemberID, Present: a.Present, Note: a.Note}
}

// ActionPlanModel is the persistence model for action plans
type ActionPlanModel struct {
	BaseModel
	GroupID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	CycleID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	MeetingID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Description      string     `gorm:"type:text;not null"`
	AssignedMemberID *uuid.UUID `gorm:"type:uuid"`
	DueDate          *time.Time `gorm:"type:date"`
	Status           string     `gorm:"type:varchar(20);not null"`
	LastNote         string     `gorm:"type:text"`
	UpdatedInMeeting *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ActionPlanModel) TableName() string {
	return "action_plans"
}

// ToDomain converts the persistence model to a domain ActionPlan
func (m *ActionPlanModel) ToDomain() *meeting.ActionPlan {
	return &meeting.ActionPlan{
		BaseEntity:       m.BaseModel.ToDomain(),
		GroupID:          m.GroupID,
		CycleID:          m.CycleID,
		MeetingID:        m.MeetingID,
		Description:      m.Description,
		AssignedMemberID: m.AssignedMemberID,
		DueDate:          m.DueDate,
		Status:           meeting.PlanStatus(m.Status),
		LastNote:         m.LastNote,
		UpdatedInMeeting: m.UpdatedInMeeting,
	}
}

// ActionPlanModelFromDomain creates a persistence model from a domain ActionPlan
func ActionPlanModelFromDomain(p *meeting.ActionPlan) *ActionPlanModel {
	m := &ActionPlanModel{
		GroupID:          p.GroupID,
		CycleID:          p.CycleID,
		MeetingID:        p.MeetingID,
		Description:      p.Description,
		AssignedMemberID: p.AssignedMemberID,
		DueDate:          p.DueDate,
		Status:           string(p.Status),
		LastNote:         p.LastNote,
		UpdatedInMeeting: p.UpdatedInMeeting,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
