package router

import (
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/interfaces/http/handler"
	"github.com/farmsupport/vsla/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers of every domain
type Handlers struct {
	Meetings   *handler.MeetingHandler
	Loans      *handler.LoanHandler
	SocialFund *handler.SocialFundHandler
	Ledger     *handler.LedgerHandler
	Shareouts  *handler.ShareoutHandler
	Groups     *handler.GroupHandler
	System     *handler.SystemHandler
}

// DomainGroups returns the route groups served under the API prefix
func (h Handlers) DomainGroups() []*DomainGroup {
	return []*DomainGroup{
		MeetingRoutes(h.Meetings),
		LoanRoutes(h.Loans),
		SocialFundRoutes(h.SocialFund),
		LedgerRoutes(h.Ledger),
		ShareoutRoutes(h.Shareouts),
		GroupRoutes(h.Groups),
		SystemRoutes(h.System),
	}
}

// RegisterAll registers every domain group on r
func RegisterAll(r *Router, h Handlers) *Router {
	for _, g := range h.DomainGroups() {
		r.Register(g)
	}
	return r
}

// MeetingRoutes covers batch submission, reprocessing and meeting queries
func MeetingRoutes(h *handler.MeetingHandler) *DomainGroup {
	g := NewDomainGroup("meeting", "")
	g.POST("/meetings", h.Submit)
	g.GET("/meetings", h.List)
	g.GET("/meetings/:id", h.Get)
	g.POST("/meetings/:id/reprocess", h.Reprocess)
	g.GET("/action-plans", h.ActionPlans)
	return g
}

func LoanRoutes(h *handler.LoanHandler) *DomainGroup {
	g := NewDomainGroup("loan", "/loans")
	g.GET("", h.List)
	g.GET("/statistics", h.Statistics)
	g.GET("/:id", h.Get)
	g.POST("/:id/repayments", h.Repay)
	g.POST("/:id/penalties", h.Penalty)
	g.POST("/:id/waivers", h.Waive)
	g.POST("/:id/default", h.Default)
	return g
}

func SocialFundRoutes(h *handler.SocialFundHandler) *DomainGroup {
	g := NewDomainGroup("social_fund", "/social-fund")
	g.POST("/transactions", h.Create)
	g.GET("/transactions", h.List)
	g.GET("/balance", h.Balance)
	return g
}

func LedgerRoutes(h *handler.LedgerHandler) *DomainGroup {
	g := NewDomainGroup("ledger", "/ledger")
	g.GET("/balance", h.Balance)
	g.GET("/entries", h.Entries)
	g.GET("/holdings", h.Holdings)
	g.POST("/entries/:id/reverse", h.Reverse)
	return g
}

// ShareoutRoutes covers the end-of-cycle workflow. Approval rights are
// checked by the service against the group's officers.
func ShareoutRoutes(h *handler.ShareoutHandler) *DomainGroup {
	g := NewDomainGroup("shareout", "/shareouts")
	g.GET("", h.List)
	g.POST("", h.Initiate)
	g.GET("/eligible-cycles", h.EligibleCycles)

	one := g.Group("shareout", "/:id")
	one.GET("", h.Get)
	one.GET("/distributions", h.Distributions)
	one.GET("/summary", h.Summary)
	one.POST("/calculate", h.Calculate)
	one.POST("/recalculate", h.Recalculate)
	one.POST("/approve", h.Approve)
	one.POST("/complete", h.Complete)
	one.POST("/cancel", h.Cancel)
	return g
}

// GroupRoutes covers the registry. Creating a group is reserved to platform
// staff; the rest is checked per group by the service.
func GroupRoutes(h *handler.GroupHandler) *DomainGroup {
	g := NewDomainGroup("group", "/groups")
	g.POST("", middleware.RequireRole(shared.RolePlatformAdmin, shared.RoleFieldOfficer), h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/members", h.AddMember)
	g.GET("/:id/members", h.ListMembers)
	g.POST("/:id/cycles", h.OpenCycle)
	g.GET("/:id/cycles", h.ListCycles)
	return g
}

func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.Info)
	return g
}
