package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time            { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(requests int, window time.Duration, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(requests, window, burst)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute, 2)

	ok, _ := rl.Allow("user:a")
	assert.True(t, ok)
	ok, _ = rl.Allow("user:a")
	assert.True(t, ok)
	assert.Equal(t, 0, rl.Remaining("user:a"))

	ok, wait := rl.Allow("user:a")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	ok, _ = rl.Allow("user:b")
	assert.True(t, ok, "buckets are per client")

	clock.advance(30 * time.Second)
	ok, _ = rl.Allow("user:a")
	assert.True(t, ok)
}

func TestRateLimiter_SweepForgetsIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(10, time.Minute, 10)
	rl.Allow("ip:10.0.0.1")
	rl.Allow("ip:10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	clock.advance(2 * time.Minute)
	rl.Allow("ip:10.0.0.2")
	clock.advance(2 * time.Minute)
	rl.sweep()

	assert.Equal(t, 1, rl.Len())
}

func TestRateLimit_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute, 1)

	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set(UserIDKey, u)
		}
		c.Next()
	}, RateLimit(rl))
	router.GET("/test", okHandler)

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("u1").Code)

	w := send("u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, send("u2").Code)
	assert.Equal(t, http.StatusOK, send("").Code, "anonymous callers are keyed by IP")
}
