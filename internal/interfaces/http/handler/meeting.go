package handler

import (
	"encoding/json"
	"net/http"

	meetingapp "github.com/farmsupport/vsla/internal/application/meeting"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/farmsupport/vsla/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MeetingHandler serves offline meeting submission and meeting reads.
// Submit and reprocess answer with the flat outcome the mobile client expects
// rather than the standard envelope.
type MeetingHandler struct {
	BaseHandler
	gateway   *meetingapp.IngestionGateway
	processor *meetingapp.Processor
	query     *meetingapp.QueryService
}

// NewMeetingHandler creates a new MeetingHandler
func NewMeetingHandler(gateway *meetingapp.IngestionGateway, processor *meetingapp.Processor, query *meetingapp.QueryService) *MeetingHandler {
	return &MeetingHandler{gateway: gateway, processor: processor, query: query}
}

// Submit godoc
// @Summary      Submit an offline meeting
// @Description  Registers and posts a meeting batch. Resubmitting a local_id answers 409 with the original outcome.
// @Tags         meetings
// @Accept       json
// @Produce      json
// @Param        request body meeting.Batch true "Meeting batch"
// @Success      200 {object} meeting.Outcome
// @Success      207 {object} meeting.Outcome
// @Failure      409 {object} meeting.Outcome
// @Failure      422 {object} dto.Response
// @Failure      500 {object} meeting.Outcome
// @Router       /meetings [post]
func (h *MeetingHandler) Submit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	var batch meeting.Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	outcome, err := h.gateway.Submit(c.Request.Context(), actor, &batch, raw)
	h.respondOutcome(c, outcome, err)
}

// Reprocess godoc
// @Summary      Reprocess a failed meeting
// @Tags         meetings
// @Produce      json
// @Param        id path string true "Meeting ID"
// @Success      200 {object} meeting.Outcome
// @Success      207 {object} meeting.Outcome
// @Failure      422 {object} dto.Response
// @Router       /meetings/{id}/reprocess [post]
func (h *MeetingHandler) Reprocess(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.processor.Reprocess(c.Request.Context(), actor, id)
	h.respondOutcome(c, outcome, err)
}

// respondOutcome writes a processing outcome. A failed run still carries an
// outcome and is answered with it; errors raised before anything was stored
// use the standard envelope.
func (h *MeetingHandler) respondOutcome(c *gin.Context, outcome *meeting.Outcome, err error) {
	if err != nil {
		if outcome == nil {
			h.HandleError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, outcome)
		return
	}
	c.JSON(OutcomeStatus(outcome), outcome)
}

// OutcomeStatus maps a processing outcome to its HTTP status
func OutcomeStatus(o *meeting.Outcome) int {
	switch {
	case o.Duplicate:
		return http.StatusConflict
	case o.ProcessingStatus == meeting.StatusFailed:
		return http.StatusInternalServerError
	case o.ProcessingStatus == meeting.StatusNeedsReview, o.HasErrors:
		return http.StatusMultiStatus
	default:
		return http.StatusOK
	}
}

// Get godoc
// @Summary      Get a meeting with its attendance
// @Tags         meetings
// @Produce      json
// @Param        id path string true "Meeting ID"
// @Success      200 {object} dto.Response{data=meetingapp.MeetingResponse}
// @Failure      404 {object} dto.Response
// @Router       /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	m, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// List godoc
// @Summary      List meetings of a group or cycle
// @Tags         meetings
// @Produce      json
// @Param        group_id query string false "Group ID"
// @Param        cycle_id query string false "Cycle ID"
// @Param        processing_status query string false "Processing status"
// @Success      200 {object} dto.Response{data=[]meetingapp.MeetingResponse,meta=dto.Meta}
// @Router       /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	var q meetingapp.MeetingListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.query.List(c.Request.Context(), filter, q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// ActionPlans lists the action plans of a cycle
func (h *MeetingHandler) ActionPlans(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Query("cycle_id"))
	if err != nil {
		h.Error(c, dto.ErrCodeInvalidID, "cycle_id query parameter is required")
		return
	}
	plans, err := h.query.ActionPlans(c.Request.Context(), cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plans)
}
