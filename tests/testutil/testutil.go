// Package testutil provides test helpers shared by the VSLA packages: seeded
// sqlite associations, a handler case runner and an event recorder.
package testutil

import (
	"net/http/httptest"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestContext pairs a gin context with the recorder behind it.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// SetActor stores actor under the keys the JWT middleware uses.
func SetActor(c *gin.Context, actor shared.Actor) {
	c.Set("actor", actor)
	c.Set("user_id", actor.UserID.String())
	if actor.GroupID != nil {
		c.Set("group_id", actor.GroupID.String())
	}
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// TestUserID is the same user on every call.
func TestUserID() uuid.UUID {
	return uuid.NewSHA1(testNamespace, []byte("test-user"))
}

// AdminActor returns a platform administrator without group membership.
func AdminActor() shared.Actor {
	return shared.NewActor(TestUserID(), shared.RolePlatformAdmin)
}
