package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	groupapp "github.com/farmsupport/vsla/internal/application/group"
	ledgerapp "github.com/farmsupport/vsla/internal/application/ledger"
	loanapp "github.com/farmsupport/vsla/internal/application/loan"
	meetingapp "github.com/farmsupport/vsla/internal/application/meeting"
	shareoutapp "github.com/farmsupport/vsla/internal/application/shareout"
	socialfundapp "github.com/farmsupport/vsla/internal/application/socialfund"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/farmsupport/vsla/internal/interfaces/http/middleware"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope is dto.Response with the payload left undecoded
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// harness serves every handler over real services backed by sqlite
type harness struct {
	assoc  *testutil.Association
	engine *gin.Engine
	actor  *shared.Actor
	loans  *loanapp.Service
	ledger *ledgerapp.Service
}

func newHarness(t *testing.T, members int) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	assoc := testutil.SeedAssociation(t, db, members)
	scope := persistence.NewGormTransactionScope(db)
	log := zap.NewNop()

	ledgerSvc := ledgerapp.NewService(scope, log)
	loanSvc := loanapp.NewService(scope, ledgerSvc, log)
	fundSvc := socialfundapp.NewService(scope, log)
	processor := meetingapp.NewProcessor(scope, ledgerSvc, loanSvc, fundSvc, log)

	chair := assoc.Actor(0)
	h := &harness{assoc: assoc, actor: &chair, loans: loanSvc, ledger: ledgerSvc}

	e := gin.New()
	e.Use(middleware.RequestID())
	e.Use(func(c *gin.Context) {
		if h.actor != nil {
			testutil.SetActor(c, *h.actor)
		}
		c.Next()
	})

	meetings := NewMeetingHandler(
		meetingapp.NewIngestionGateway(scope, processor, log),
		processor,
		meetingapp.NewQueryService(scope),
	)
	e.POST("/meetings", meetings.Submit)
	e.GET("/meetings", meetings.List)
	e.GET("/meetings/:id", meetings.Get)
	e.POST("/meetings/:id/reprocess", meetings.Reprocess)
	e.GET("/action-plans", meetings.ActionPlans)

	loans := NewLoanHandler(loanSvc)
	e.GET("/loans", loans.List)
	e.GET("/loans/statistics", loans.Statistics)
	e.GET("/loans/:id", loans.Get)
	e.POST("/loans/:id/repayments", loans.Repay)
	e.POST("/loans/:id/penalties", loans.Penalty)
	e.POST("/loans/:id/waivers", loans.Waive)
	e.POST("/loans/:id/default", loans.Default)

	fund := NewSocialFundHandler(fundSvc)
	e.POST("/social-fund/transactions", fund.Create)
	e.GET("/social-fund/transactions", fund.List)
	e.GET("/social-fund/balance", fund.Balance)

	ledger := NewLedgerHandler(ledgerSvc)
	e.GET("/ledger/balance", ledger.Balance)
	e.GET("/ledger/entries", ledger.Entries)
	e.GET("/ledger/holdings", ledger.Holdings)
	e.POST("/ledger/entries/:id/reverse", ledger.Reverse)

	shareouts := NewShareoutHandler(shareoutapp.NewService(scope, shareout.Policy{}, log))
	e.GET("/shareouts/eligible-cycles", shareouts.EligibleCycles)
	e.GET("/shareouts", shareouts.List)
	e.POST("/shareouts", shareouts.Initiate)
	e.GET("/shareouts/:id", shareouts.Get)
	e.POST("/shareouts/:id/calculate", shareouts.Calculate)
	e.POST("/shareouts/:id/recalculate", shareouts.Recalculate)
	e.GET("/shareouts/:id/distributions", shareouts.Distributions)
	e.GET("/shareouts/:id/summary", shareouts.Summary)
	e.POST("/shareouts/:id/approve", shareouts.Approve)
	e.POST("/shareouts/:id/complete", shareouts.Complete)
	e.POST("/shareouts/:id/cancel", shareouts.Cancel)

	groups := NewGroupHandler(groupapp.NewService(scope, log))
	e.POST("/groups", groups.Create)
	e.GET("/groups/:id", groups.Get)
	e.POST("/groups/:id/members", groups.AddMember)
	e.GET("/groups/:id/members", groups.ListMembers)
	e.POST("/groups/:id/cycles", groups.OpenCycle)
	e.GET("/groups/:id/cycles", groups.ListCycles)

	h.engine = e
	return h
}

// as switches the caller of the following requests. nil makes them anonymous.
func (h *harness) as(actor *shared.Actor) {
	h.actor = actor
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

// decode reads the envelope and, when out is given, its data
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NotEmpty(t, env.Data, w.Body.String())
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// errorCode returns the code of an error envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w, nil)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}
