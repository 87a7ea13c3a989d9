package handler

import (
	groupapp "github.com/farmsupport/vsla/internal/application/group"
	"github.com/gin-gonic/gin"
)

// GroupHandler serves the group registry: groups, members and cycles
type GroupHandler struct {
	BaseHandler
	groups *groupapp.Service
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groups *groupapp.Service) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create godoc
// @Summary      Register a savings group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body groupapp.CreateGroupRequest true "Group"
// @Success      201 {object} dto.Response{data=groupapp.GroupResponse}
// @Failure      409 {object} dto.Response
// @Router       /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req groupapp.CreateGroupRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.groups.CreateGroup(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one group
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.groups.GetGroup(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddMember godoc
// @Summary      Add a member to a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body groupapp.AddMemberRequest true "Member"
// @Success      201 {object} dto.Response{data=groupapp.MemberResponse}
// @Router       /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req groupapp.AddMemberRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.groups.AddMember(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMembers returns the members of a group
func (h *GroupHandler) ListMembers(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	members, err := h.groups.ListMembers(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, members)
}

// OpenCycle godoc
// @Summary      Open the group's next cycle
// @Description  Fails while the group still has an open cycle.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body groupapp.OpenCycleRequest true "Cycle"
// @Success      201 {object} dto.Response{data=groupapp.CycleResponse}
// @Failure      422 {object} dto.Response
// @Router       /groups/{id}/cycles [post]
func (h *GroupHandler) OpenCycle(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req groupapp.OpenCycleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.groups.OpenCycle(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListCycles returns the cycles of a group
func (h *GroupHandler) ListCycles(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	cycles, err := h.groups.ListCycles(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cycles)
}
