package meeting

import (
	"github.com/google/uuid"
)

// Attendance is a member's presence at a meeting. It has no ledger effect.
type Attendance struct {
	ID        uuid.UUID
	MeetingID uuid.UUID
	MemberID  uuid.UUID
	Present   bool
	Note      string
}

// AttendanceFrom builds attendance rows and the present and absent counts.
// Repeated member ids keep the last record.
func AttendanceFrom(meetingID uuid.UUID, records []AttendanceRecord) ([]Attendance, int, int) {
	byMember := make(map[uuid.UUID]int, len(records))
	rows := make([]Attendance, 0, len(records))
	for _, r := range records {
		row := Attendance{ID: uuid.New(), MeetingID: meetingID, MemberID: r.MemberID, Present: r.Present, Note: r.Note}
		if i, ok := byMember[r.MemberID]; ok {
			rows[i] = row
			continue
		}
		byMember[r.MemberID] = len(rows)
		rows = append(rows, row)
	}
	present, absent := 0, 0
	for _, r := range rows {
		if r.Present {
			present++
		} else {
			absent++
		}
	}
	return rows, present, absent
}
