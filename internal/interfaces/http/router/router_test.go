package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/interfaces/http/handler"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.Prefix())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.Prefix())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	g := NewDomainGroup("test", "/test")
	g.GET("/secret", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(g).Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/test/secret").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code, "routes outside the API prefix are untouched")
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("loan", "/loans")
		assert.Equal(t, "loan", g.Name())
		assert.Equal(t, "/loans", g.Prefix())
	})

	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/test/items").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups nest under the parent prefix", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("shareout", "/shareouts")
		one := g.Group("shareout", "/:id")
		one.GET("/summary", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/shareouts/abc/summary")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc", w.Body.String())
		assert.Equal(t, []string{"GET /shareouts/:id/summary"}, g.Routes())
	})
}

func nilHandlers() Handlers {
	return Handlers{
		Meetings:   handler.NewMeetingHandler(nil, nil, nil),
		Loans:      handler.NewLoanHandler(nil),
		SocialFund: handler.NewSocialFundHandler(nil),
		Ledger:     handler.NewLedgerHandler(nil),
		Shareouts:  handler.NewShareoutHandler(nil),
		Groups:     handler.NewGroupHandler(nil),
		System:     handler.NewSystemHandler(nil, "test"),
	}
}

func TestRegisterAll(t *testing.T) {
	engine := gin.New()
	RegisterAll(NewRouter(engine), nilHandlers()).Setup()

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/meetings",
		"GET /api/v1/meetings/:id",
		"POST /api/v1/meetings/:id/reprocess",
		"GET /api/v1/action-plans",
		"GET /api/v1/loans/statistics",
		"POST /api/v1/loans/:id/repayments",
		"POST /api/v1/loans/:id/waivers",
		"POST /api/v1/social-fund/transactions",
		"GET /api/v1/social-fund/balance",
		"GET /api/v1/ledger/holdings",
		"POST /api/v1/ledger/entries/:id/reverse",
		"GET /api/v1/shareouts/eligible-cycles",
		"POST /api/v1/shareouts/:id/calculate",
		"POST /api/v1/shareouts/:id/approve",
		"POST /api/v1/shareouts/:id/cancel",
		"POST /api/v1/groups",
		"POST /api/v1/groups/:id/cycles",
		"GET /api/v1/system/info",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	var total int
	for _, g := range nilHandlers().DomainGroups() {
		total += len(g.Routes())
	}
	assert.Len(t, engine.Routes(), total)
}

func TestGroupCreationRequiresPlatformRole(t *testing.T) {
	var actor *shared.Actor
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if actor != nil {
			testutil.SetActor(c, *actor)
		}
		c.Next()
	})
	RegisterAll(NewRouter(engine), nilHandlers()).Setup()

	w := serve(engine, http.MethodPost, "/api/v1/groups")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	member := shared.NewActor(uuid.New()).WithMember(uuid.New(), uuid.New())
	actor = &member
	w = serve(engine, http.MethodPost, "/api/v1/groups")
	require.Equal(t, http.StatusForbidden, w.Code)
}
