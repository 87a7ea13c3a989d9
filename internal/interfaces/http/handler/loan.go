package handler

import (
	"context"

	loanapp "github.com/farmsupport/vsla/internal/application/loan"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoanHandler serves loan repayments, adjustments and reads
type LoanHandler struct {
	BaseHandler
	loans *loanapp.Service
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loans *loanapp.Service) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// Repay godoc
// @Summary      Record a loan repayment
// @Description  Rejects amounts above the outstanding balance. A repayment that clears the balance marks the loan paid.
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        id path string true "Loan ID"
// @Param        request body loanapp.RepayRequest true "Repayment"
// @Success      200 {object} dto.Response{data=loanapp.RepaymentResult}
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /loans/{id}/repayments [post]
func (h *LoanHandler) Repay(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req loanapp.RepayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.loans.Repay(c.Request.Context(), actor, id, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Penalty charges a penalty on an active loan
func (h *LoanHandler) Penalty(c *gin.Context) {
	h.adjust(c, h.loans.ApplyPenalty)
}

// Waive forgives part of an active loan's balance
func (h *LoanHandler) Waive(c *gin.Context) {
	h.adjust(c, h.loans.Waive)
}

type adjustFunc func(ctx context.Context, actor shared.Actor, loanID uuid.UUID, cmd loanapp.AdjustCommand) (*loanapp.LoanResponse, error)

func (h *LoanHandler) adjust(c *gin.Context, apply adjustFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req loanapp.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := apply(c.Request.Context(), actor, id, req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Default godoc
// @Summary      Mark a loan defaulted
// @Tags         loans
// @Produce      json
// @Param        id path string true "Loan ID"
// @Success      200 {object} dto.Response{data=loanapp.LoanResponse}
// @Failure      422 {object} dto.Response
// @Router       /loans/{id}/default [post]
func (h *LoanHandler) Default(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.loans.MarkDefaulted(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get a loan with its transaction trail
// @Tags         loans
// @Produce      json
// @Param        id path string true "Loan ID"
// @Success      200 {object} dto.Response{data=loanapp.LoanResponse}
// @Failure      404 {object} dto.Response
// @Router       /loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.loans.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of loans
func (h *LoanHandler) List(c *gin.Context) {
	var q loanapp.LoanListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.loans.List(c.Request.Context(), filter, q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Statistics summarizes the loans of a group, cycle or member
func (h *LoanHandler) Statistics(c *gin.Context) {
	var q loanapp.LoanListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	stats, err := h.loans.Statistics(c.Request.Context(), loanapp.Scope{
		GroupID:  filter.GroupID,
		CycleID:  filter.CycleID,
		MemberID: filter.BorrowerID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
