package handler

import (
	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// LedgerHandler serves ledger balances, entry history and reversals
type LedgerHandler struct {
	BaseHandler
	ledger *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Balance godoc
// @Summary      Sum the entries matching a filter
// @Description  Returns the signed sum of exactly the entries the filter selects. group_id or cycle_id is required.
// @Tags         ledger
// @Produce      json
// @Param        group_id query string false "Group ID"
// @Param        cycle_id query string false "Cycle ID"
// @Param        member_id query string false "Member ID"
// @Param        owner_type query string false "group or member"
// @Param        account_type query string false "Account type"
// @Success      200 {object} dto.Response{data=ledgerapp.BalanceResponse}
// @Failure      422 {object} dto.Response
// @Router       /ledger/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	var q ledgerapp.EntryListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	balance, err := h.ledger.Balance(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledgerapp.BalanceResponse{Balance: balance})
}

// Entries godoc
// @Summary      List ledger entries
// @Tags         ledger
// @Produce      json
// @Param        group_id query string false "Group ID"
// @Param        cycle_id query string false "Cycle ID"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} dto.Response{data=[]ledgerapp.EntryResponse,meta=dto.Meta}
// @Router       /ledger/entries [get]
func (h *LedgerHandler) Entries(c *gin.Context) {
	var q ledgerapp.EntryListFilter
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.ledger.List(c.Request.Context(), filter, q.Order(), q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Holdings returns what the group holds of one account in a cycle
func (h *LedgerHandler) Holdings(c *gin.Context) {
	var q ledgerapp.HoldingsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	groupID, cycleID, account, err := q.Parse()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	holdings, err := h.ledger.GroupHoldings(c.Request.Context(), groupID, cycleID, account)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledgerapp.HoldingsResponse{
		GroupID:     groupID,
		CycleID:     cycleID,
		AccountType: string(account),
		Holdings:    holdings,
	})
}

// Reverse godoc
// @Summary      Reverse a ledger entry
// @Description  Posts an offsetting pair for the entry and its contra. Entries are never edited in place.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id path string true "Entry ID"
// @Param        request body ledgerapp.ReverseRequest true "Reason"
// @Success      201 {object} dto.Response{data=ledgerapp.PairResponse}
// @Failure      404 {object} dto.Response
// @Router       /ledger/entries/{id}/reverse [post]
func (h *LedgerHandler) Reverse(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledgerapp.ReverseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pair, err := h.ledger.Reverse(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ledgerapp.ToPairResponse(pair))
}
