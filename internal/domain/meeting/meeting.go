package meeting

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// ProcessingStatus is the state of a meeting batch
type ProcessingStatus string

const (
	StatusPending     ProcessingStatus = "pending"
	StatusProcessing  ProcessingStatus = "processing"
	StatusCompleted   ProcessingStatus = "completed"
	StatusFailed      ProcessingStatus = "failed"
	StatusNeedsReview ProcessingStatus = "needs_review"
)

// IsValid checks if the status is known
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusNeedsReview:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s ProcessingStatus) CanTransitionTo(target ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing
	case StatusProcessing:
		return target == StatusCompleted || target == StatusFailed || target == StatusNeedsReview
	case StatusFailed, StatusNeedsReview:
		return target == StatusProcessing
	}
	return false
}

// IsReprocessable reports whether an explicit re-drive is allowed
func (s ProcessingStatus) IsReprocessable() bool {
	return s == StatusFailed || s == StatusNeedsReview
}

// Meeting is one submitted batch and the diagnostics of its processing.
// PostedItems holds the keys of batch items that already committed so that
// reprocessing skips them.
type Meeting struct {
	shared.BaseAggregateRoot
	LocalID            string
	GroupID            uuid.UUID
	CycleID            uuid.UUID
	MeetingDate        time.Time
	MeetingNumber      int
	MembersPresent     int
	MembersAbsent      int
	Notes              string
	ProcessingStatus   ProcessingStatus
	HasErrors          bool
	HasWarnings        bool
	Errors             []Issue
	Warnings           []Issue
	Totals             Totals
	PostedItems        []string
	RawBatchPayload    []byte
	CreatedBy          uuid.UUID
	ProcessedAt        *time.Time
	ProcessingAttempts int
	FailureReason      string
}

// NewMeeting creates a pending meeting for a validated batch
func NewMeeting(b *Batch, groupID uuid.UUID, number int, raw []byte, createdBy uuid.UUID) (*Meeting, error) {
	if strings.TrimSpace(b.LocalID) == "" {
		return nil, shared.NewValidationError("local_id", "local_id is required")
	}
	if groupID == uuid.Nil || b.CycleID == uuid.Nil {
		return nil, shared.NewValidationError("cycle_id", "group and cycle are required")
	}
	if number < 1 {
		return nil, shared.NewValidationError("meeting_number", "meeting number must be positive")
	}
	absent := 0
	if b.MembersAbsent != nil {
		absent = *b.MembersAbsent
	}
	return &Meeting{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LocalID:           strings.TrimSpace(b.LocalID),
		GroupID:           groupID,
		CycleID:           b.CycleID,
		MeetingDate:       b.Date(),
		MeetingNumber:     number,
		MembersPresent:    b.MembersPresent,
		MembersAbsent:     absent,
		Notes:             strings.TrimSpace(b.Notes),
		ProcessingStatus:  StatusPending,
		Totals:            ZeroTotals(),
		RawBatchPayload:   raw,
		CreatedBy:         createdBy,
	}, nil
}

func (m *Meeting) transition(target ProcessingStatus) error {
	if !m.ProcessingStatus.CanTransitionTo(target) {
		return shared.ErrMeetingState.
			WithMessage("meeting %s cannot move from %s to %s", m.ID, m.ProcessingStatus, target).
			WithDetails(map[string]any{"processing_status": string(m.ProcessingStatus)})
	}
	m.ProcessingStatus = target
	m.UpdatedAt = time.Now()
	return nil
}

// StartProcessing moves the meeting to processing and clears the previous
// attempt's diagnostics. Posted items and their totals are kept.
func (m *Meeting) StartProcessing() error {
	if err := m.transition(StatusProcessing); err != nil {
		return err
	}
	m.ProcessingAttempts++
	m.Errors = nil
	m.Warnings = nil
	m.HasErrors = false
	m.HasWarnings = false
	m.FailureReason = ""
	return nil
}

// IsPosted reports whether the item already committed in an earlier attempt
func (m *Meeting) IsPosted(key string) bool {
	return slices.Contains(m.PostedItems, key)
}

// MarkPosted records a committed item
func (m *Meeting) MarkPosted(key string) {
	if !m.IsPosted(key) {
		m.PostedItems = append(m.PostedItems, key)
	}
}

// Finish ends a processing run. Any recorded issue leaves the meeting for
// review; otherwise it is completed.
func (m *Meeting) Finish(errs, warnings []Issue) error {
	target := StatusCompleted
	if len(errs) > 0 || len(warnings) > 0 {
		target = StatusNeedsReview
	}
	if err := m.transition(target); err != nil {
		return err
	}
	m.Errors = errs
	m.Warnings = warnings
	m.HasErrors = len(errs) > 0
	m.HasWarnings = len(warnings) > 0
	now := time.Now()
	m.ProcessedAt = &now
	m.IncrementVersion()
	m.AddDomainEvent(NewMeetingProcessedEvent(m))
	return nil
}

// Fail records an unrecoverable processing error. The meeting may be in
// pending or processing; a failure before processing started is still
// recorded.
func (m *Meeting) Fail(reason string) {
	m.ProcessingStatus = StatusFailed
	m.FailureReason = reason
	m.HasErrors = true
	m.Errors = []Issue{{Item: "meeting", Index: -1, Code: shared.ErrProcessingFailed.Code, Message: reason}}
	m.Warnings = nil
	m.HasWarnings = false
	now := time.Now()
	m.ProcessedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()
}

// StalePending reports a meeting that was registered but has not been driven
// for longer than after, e.g. because the server stopped in between.
func (m *Meeting) StalePending(after time.Duration, now time.Time) bool {
	return m.ProcessingStatus == StatusPending && now.Sub(m.UpdatedAt) > after
}

// EnsureReprocessable checks that an explicit re-drive is allowed
func (m *Meeting) EnsureReprocessable() error {
	if !m.ProcessingStatus.IsReprocessable() {
		return shared.ErrMeetingState.
			WithMessage("meeting %s is %s; only failed or needs_review meetings can be reprocessed", m.ID, m.ProcessingStatus).
			WithDetails(map[string]any{"processing_status": string(m.ProcessingStatus)})
	}
	return nil
}

// String returns a short description for logs
func (m *Meeting) String() string {
	return fmt.Sprintf("meeting #%d (%s) of cycle %s", m.MeetingNumber, m.LocalID, m.CycleID)
}
