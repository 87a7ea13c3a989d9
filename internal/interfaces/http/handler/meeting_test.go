package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	meetingapp "github.com/farmsupport/vsla/internal/application/meeting"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchBody is a meeting where every member attends. Each member saves the
// given amount when it is not empty.
func (h *harness) batchBody(localID, savings string) map[string]any {
	var attendance, transactions []map[string]any
	for _, m := range h.assoc.Members {
		attendance = append(attendance, map[string]any{"member_id": m.ID, "present": true})
		if savings != "" {
			transactions = append(transactions, map[string]any{
				"member_id": m.ID, "account_type": "savings", "amount": savings,
			})
		}
	}
	return map[string]any{
		"local_id":          localID,
		"cycle_id":          h.assoc.Cycle.ID,
		"meeting_date":      "2026-03-14",
		"members_present":   len(h.assoc.Members),
		"attendance_data":   attendance,
		"transactions_data": transactions,
	}
}

func decodeOutcome(t *testing.T, body []byte) meeting.Outcome {
	t.Helper()
	var o meeting.Outcome
	require.NoError(t, json.Unmarshal(body, &o), string(body))
	return o
}

func TestMeetingHandler_SubmitAndResubmit(t *testing.T) {
	h := newHarness(t, 3)

	w := h.do(t, http.MethodPost, "/meetings", h.batchBody("device-1/meeting-1", "3000"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeOutcome(t, w.Body.Bytes())
	assert.True(t, first.Success)
	assert.False(t, first.Duplicate)
	assert.Equal(t, meeting.StatusCompleted, first.ProcessingStatus)
	assert.Equal(t, 1, first.MeetingNumber)
	assert.NotNil(t, first.Errors, "errors is always an array")

	w = h.do(t, http.MethodPost, "/meetings", h.batchBody("device-1/meeting-1", "3000"))
	require.Equal(t, http.StatusConflict, w.Code)
	again := decodeOutcome(t, w.Body.Bytes())
	assert.True(t, again.Duplicate)
	assert.Equal(t, first.MeetingID, again.MeetingID)

	w = h.do(t, http.MethodGet, "/meetings/"+first.MeetingID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got meetingapp.MeetingResponse
	decode(t, w, &got)
	assert.Equal(t, "device-1/meeting-1", got.LocalID)
	assert.Len(t, got.Attendance, 3)
	assert.Equal(t, "9000.00", got.Totals.Savings.StringFixed(2))

	w = h.do(t, http.MethodGet, "/meetings?cycle_id="+h.assoc.Cycle.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []meetingapp.MeetingResponse
	env := decode(t, w, &list)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)
	assert.Len(t, list, 1)
}

func TestMeetingHandler_ItemErrorsAnswerMultiStatus(t *testing.T) {
	h := newHarness(t, 2)
	body := h.batchBody("device-1/meeting-7", "")
	body["transactions_data"] = []map[string]any{
		{"member_id": h.assoc.Members[1].ID, "account_type": "savings", "amount": "2000"},
		{"member_id": uuid.New(), "account_type": "welfare", "amount": "100"},
	}

	w := h.do(t, http.MethodPost, "/meetings", body)
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())
	o := decodeOutcome(t, w.Body.Bytes())
	assert.True(t, o.Success)
	assert.True(t, o.HasErrors)
	assert.Equal(t, meeting.StatusNeedsReview, o.ProcessingStatus)
	require.Len(t, o.Errors, 1)
	assert.Equal(t, dto.ErrCodeMemberNotFound, o.Errors[0].Code)

	w = h.do(t, http.MethodPost, "/meetings/"+o.MeetingID+"/reprocess", nil)
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())
	again := decodeOutcome(t, w.Body.Bytes())
	assert.Equal(t, o.MeetingID, again.MeetingID)
}

func TestMeetingHandler_Rejections(t *testing.T) {
	h := newHarness(t, 2)

	t.Run("malformed json", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/meetings", `{"local_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, errorCode(t, w))
	})

	t.Run("invalid batch", func(t *testing.T) {
		body := h.batchBody("device-1/bad", "")
		delete(body, "attendance_data")
		body["meeting_date"] = "14/03/2026"
		w := h.do(t, http.MethodPost, "/meetings", body)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decode(t, w, nil)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		fields := make(map[string]bool)
		for _, d := range env.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["attendance_data"])
		assert.True(t, fields["meeting_date"])
	})

	t.Run("unknown cycle", func(t *testing.T) {
		body := h.batchBody("device-1/lost", "")
		body["cycle_id"] = uuid.New()
		w := h.do(t, http.MethodPost, "/meetings", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeCycleNotFound, errorCode(t, w))
	})

	t.Run("anonymous", func(t *testing.T) {
		h.as(nil)
		defer func() { chair := h.assoc.Actor(0); h.as(&chair) }()
		w := h.do(t, http.MethodPost, "/meetings", h.batchBody("device-1/anon", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("list needs a scope", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/meetings", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/meetings/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidID, errorCode(t, w))
	})

	t.Run("missing meeting", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/meetings/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeMeetingNotFound, errorCode(t, w))
	})
}

func TestMeetingHandler_ActionPlans(t *testing.T) {
	h := newHarness(t, 2)
	body := h.batchBody("device-1/plans", "")
	body["upcoming_action_plans_data"] = []map[string]any{
		{"description": "Visit the district office", "assigned_member_id": h.assoc.Members[1].ID, "due_date": "2026-04-01"},
	}
	w := h.do(t, http.MethodPost, "/meetings", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, http.MethodGet, "/action-plans?cycle_id="+h.assoc.Cycle.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []meetingapp.ActionPlanResponse
	decode(t, w, &plans)
	require.Len(t, plans, 1)
	assert.Equal(t, "Visit the district office", plans[0].Description)

	w = h.do(t, http.MethodGet, "/action-plans", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome meeting.Outcome
		want    int
	}{
		{"completed", meeting.Outcome{ProcessingStatus: meeting.StatusCompleted}, http.StatusOK},
		{"warnings only", meeting.Outcome{ProcessingStatus: meeting.StatusCompleted, HasWarnings: true}, http.StatusOK},
		{"needs review", meeting.Outcome{ProcessingStatus: meeting.StatusNeedsReview, HasErrors: true}, http.StatusMultiStatus},
		{"duplicate", meeting.Outcome{ProcessingStatus: meeting.StatusNeedsReview, Duplicate: true}, http.StatusConflict},
		{"failed", meeting.Outcome{ProcessingStatus: meeting.StatusFailed}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeStatus(&tt.outcome))
		})
	}
}
