package meeting

import (
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

const EventTypeMeetingProcessed = "MeetingProcessed"

// MeetingProcessedEvent is raised when a processing run ends without a
// structural failure
type MeetingProcessedEvent struct {
	shared.BaseDomainEvent
	CycleID          uuid.UUID        `json:"cycle_id"`
	MeetingNumber    int              `json:"meeting_number"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	Attempt          int              `json:"attempt"`
	ErrorCount       int              `json:"error_count"`
	WarningCount     int              `json:"warning_count"`
	Totals           Totals           `json:"totals"`
}

// NewMeetingProcessedEvent creates a MeetingProcessedEvent
func NewMeetingProcessedEvent(m *Meeting) *MeetingProcessedEvent {
	return &MeetingProcessedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeMeetingProcessed, "Meeting", m.ID, m.GroupID),
		CycleID:          m.CycleID,
		MeetingNumber:    m.MeetingNumber,
		ProcessingStatus: m.ProcessingStatus,
		Attempt:          m.ProcessingAttempts,
		ErrorCount:       len(m.Errors),
		WarningCount:     len(m.Warnings),
		Totals:           m.Totals,
	}
}
