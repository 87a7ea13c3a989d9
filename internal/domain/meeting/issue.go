package meeting

// Issue is a per-item problem recorded on a meeting
type Issue struct {
	Item    string `json:"item"`
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Issue codes that are not domain error codes
const (
	CodeClientTotalMismatch = "CLIENT_TOTAL_MISMATCH"
	CodeAttendanceMismatch  = "ATTENDANCE_MISMATCH"
	CodeUnknownMember       = "UNKNOWN_MEMBER"
	CodeUnknownActionPlan   = "UNKNOWN_ACTION_PLAN"
	CodeItemFailed          = "ITEM_FAILED"
)

// Outcome is the result of submitting or processing a meeting
type Outcome struct {
	Success          bool             `json:"success"`
	MeetingID        string           `json:"meeting_id"`
	MeetingNumber    int              `json:"meeting_number"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	HasErrors        bool             `json:"has_errors"`
	HasWarnings      bool             `json:"has_warnings"`
	Duplicate        bool             `json:"duplicate"`
	Errors           []Issue          `json:"errors"`
	Warnings         []Issue          `json:"warnings"`
}

// OutcomeOf builds the outcome for the meeting's current state
func OutcomeOf(m *Meeting, duplicate bool) *Outcome {
	errs := m.Errors
	if errs == nil {
		errs = []Issue{}
	}
	warns := m.Warnings
	if warns == nil {
		warns = []Issue{}
	}
	return &Outcome{
		Success:          m.ProcessingStatus != StatusFailed,
		MeetingID:        m.ID.String(),
		MeetingNumber:    m.MeetingNumber,
		ProcessingStatus: m.ProcessingStatus,
		HasErrors:        m.HasErrors,
		HasWarnings:      m.HasWarnings,
		Duplicate:        duplicate,
		Errors:           errs,
		Warnings:         warns,
	}
}
