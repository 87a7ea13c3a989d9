package handler

import (
	socialfundapp "github.com/farmsupport/vsla/internal/application/socialfund"
	"github.com/gin-gonic/gin"
)

// SocialFundHandler serves the group's social fund
type SocialFundHandler struct {
	BaseHandler
	fund *socialfundapp.Service
}

// NewSocialFundHandler creates a new SocialFundHandler
func NewSocialFundHandler(fund *socialfundapp.Service) *SocialFundHandler {
	return &SocialFundHandler{fund: fund}
}

// Create godoc
// @Summary      Record a social fund contribution or withdrawal
// @Description  A withdrawal larger than the current balance is rejected and nothing is written.
// @Tags         social-fund
// @Accept       json
// @Produce      json
// @Param        request body socialfundapp.CreateTransactionRequest true "Movement"
// @Success      201 {object} dto.Response{data=socialfundapp.TransactionResponse}
// @Failure      422 {object} dto.Response
// @Router       /social-fund/transactions [post]
func (h *SocialFundHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req socialfundapp.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var resp *socialfundapp.TransactionResponse
	if req.IsWithdrawal() {
		resp, err = h.fund.Withdraw(c.Request.Context(), actor, cmd)
	} else {
		resp, err = h.fund.Contribute(c.Request.Context(), actor, cmd)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Balance returns the fund balance of a group, optionally narrowed to a cycle
func (h *SocialFundHandler) Balance(c *gin.Context) {
	var q socialfundapp.BalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	groupID, cycleID, err := q.Scope()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	balance, err := h.fund.Balance(c.Request.Context(), groupID, cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, socialfundapp.BalanceResponse{GroupID: groupID, CycleID: cycleID, Balance: balance})
}

// List returns a page of fund history
func (h *SocialFundHandler) List(c *gin.Context) {
	var q socialfundapp.TransactionListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.fund.List(c.Request.Context(), filter, q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}
