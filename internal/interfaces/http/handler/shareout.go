package handler

import (
	"context"

	shareoutapp "github.com/farmsupport/vsla/internal/application/shareout"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShareoutHandler serves the end-of-cycle shareout wizard: pick an eligible
// cycle, initiate, calculate, review, approve and complete.
type ShareoutHandler struct {
	BaseHandler
	shareouts *shareoutapp.Service
}

// NewShareoutHandler creates a new ShareoutHandler
func NewShareoutHandler(shareouts *shareoutapp.Service) *ShareoutHandler {
	return &ShareoutHandler{shareouts: shareouts}
}

// EligibleCycles godoc
// @Summary      List cycles that can be shared out
// @Tags         shareouts
// @Produce      json
// @Param        group_id query string true "Group ID"
// @Success      200 {object} dto.Response{data=[]shareoutapp.EligibleCycleResponse}
// @Router       /shareouts/eligible-cycles [get]
func (h *ShareoutHandler) EligibleCycles(c *gin.Context) {
	groupID, err := uuid.Parse(c.Query("group_id"))
	if err != nil {
		h.Error(c, dto.ErrCodeInvalidID, "group_id query parameter is required")
		return
	}
	cycles, err := h.shareouts.EligibleCycles(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cycles)
}

// Initiate godoc
// @Summary      Start a shareout for a cycle
// @Description  A cycle has at most one shareout in progress; a second one answers 409.
// @Tags         shareouts
// @Accept       json
// @Produce      json
// @Param        request body shareoutapp.InitiateRequest true "Cycle"
// @Success      201 {object} dto.Response{data=shareoutapp.ShareoutResponse}
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /shareouts [post]
func (h *ShareoutHandler) Initiate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req shareoutapp.InitiateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cycleID, err := shared.ParseID("cycle_id", req.CycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp, err := h.shareouts.Initiate(c.Request.Context(), actor, cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

type transitionFunc func(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shareoutapp.ShareoutResponse, error)

func (h *ShareoutHandler) transition(c *gin.Context, apply transitionFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Calculate computes the distributions of a draft shareout
func (h *ShareoutHandler) Calculate(c *gin.Context) {
	h.transition(c, h.shareouts.Calculate)
}

// Recalculate replaces the distributions of a calculated shareout
func (h *ShareoutHandler) Recalculate(c *gin.Context) {
	h.transition(c, h.shareouts.Recalculate)
}

// Approve godoc
// @Summary      Approve a calculated shareout
// @Description  Only a group admin or a platform admin may approve.
// @Tags         shareouts
// @Produce      json
// @Param        id path string true "Shareout ID"
// @Success      200 {object} dto.Response{data=shareoutapp.ShareoutResponse}
// @Failure      403 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /shareouts/{id}/approve [post]
func (h *ShareoutHandler) Approve(c *gin.Context) {
	h.transition(c, h.shareouts.Approve)
}

// Complete pays out an approved shareout and closes its cycle
func (h *ShareoutHandler) Complete(c *gin.Context) {
	h.transition(c, h.shareouts.Complete)
}

// Cancel abandons a shareout that has not completed
func (h *ShareoutHandler) Cancel(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req shareoutapp.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.shareouts.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one shareout
func (h *ShareoutHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.shareouts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns the shareout history
func (h *ShareoutHandler) List(c *gin.Context) {
	var q shareoutapp.ShareoutListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.shareouts.History(c.Request.Context(), filter, q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Distributions godoc
// @Summary      List the member lines of a shareout
// @Tags         shareouts
// @Produce      json
// @Param        id path string true "Shareout ID"
// @Success      200 {object} dto.Response{data=[]shareoutapp.DistributionResponse}
// @Router       /shareouts/{id}/distributions [get]
func (h *ShareoutHandler) Distributions(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.shareouts.Distributions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Summary returns the totals of a shareout for review
func (h *ShareoutHandler) Summary(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.shareouts.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
