package handler

import (
	"net/http"
	"testing"

	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Requests rejected before any service call, so the handlers need no backing
// services.
func TestHandlers_RejectBeforeServiceCall(t *testing.T) {
	admin := testutil.AdminActor()
	badID := gin.Params{{Key: "id", Value: "not-a-uuid"}}
	goodID := gin.Params{{Key: "id", Value: uuid.NewString()}}

	loans := NewLoanHandler(nil)
	ledger := NewLedgerHandler(nil)

	cases := []struct {
		handler gin.HandlerFunc
		tc      testutil.HTTPTestCase
	}{
		{NewLoanHandler(nil).Get, testutil.HTTPTestCase{
			Name: "loan id", Params: badID,
			ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidID,
		}},
		{NewMeetingHandler(nil, nil, nil).Get, testutil.HTTPTestCase{
			Name: "meeting id", Params: badID,
			ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidID,
		}},
		{NewShareoutHandler(nil).Get, testutil.HTTPTestCase{
			Name: "shareout id", Params: badID,
			ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidID,
		}},
		{NewGroupHandler(nil).Get, testutil.HTTPTestCase{
			Name: "group id", Params: badID,
			ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidID,
		}},
		{loans.Repay, testutil.HTTPTestCase{
			Name: "anonymous repayment", Method: http.MethodPost, Params: goodID,
			Body:           map[string]string{"amount": "100"},
			ExpectedStatus: http.StatusUnauthorized, ExpectedCode: dto.ErrCodeUnauthorized,
		}},
		{loans.Repay, testutil.HTTPTestCase{
			Name: "malformed repayment", Method: http.MethodPost, Params: goodID,
			Body: "{", Actor: &admin,
			ExpectedStatus: dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), ExpectedCode: dto.ErrCodeInvalidJSON,
		}},
		{ledger.Reverse, testutil.HTTPTestCase{
			Name: "reverse entry id", Method: http.MethodPost, Params: badID, Actor: &admin,
			ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidID,
		}},
	}

	for _, c := range cases {
		t.Run(c.tc.Name, func(t *testing.T) {
			testutil.RunHTTPTestCase(t, c.handler, c.tc)
		})
	}
}
