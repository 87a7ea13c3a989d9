package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error            { return nil }
func (failingStore) Close() error                                      { return nil }

func newIdempotentRouter(cfg IdempotencyConfig, status *int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		c.Set(UserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	}, Idempotency(cfg))
	router.POST("/api/v1/loans/:id/repayments", func(c *gin.Context) {
		c.Status(*status)
	})
	router.GET("/api/v1/loans/:id", okHandler)
	return router
}

func sendWithKey(router *gin.Engine, method, path, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Test-User", user)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RejectsReplay(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusCreated
	router := newIdempotentRouter(IdempotencyConfig{Store: store, TTL: time.Hour}, &status)

	path := "/api/v1/loans/0b7c/repayments"
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)

	w := sendWithKey(router, http.MethodPost, path, "u1", "k-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_KEY_REUSED")

	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u2", "k-1").Code,
		"keys are scoped per user")
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "k-2").Code)
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "").Code)
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "").Code,
		"requests without a key are not guarded")
}

func TestIdempotency_ReleasesOnServerError(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusInternalServerError
	router := newIdempotentRouter(IdempotencyConfig{Store: store}, &status)

	path := "/api/v1/loans/0b7c/repayments"
	assert.Equal(t, http.StatusInternalServerError, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)
	assert.Equal(t, 0, store.Len())

	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)
	assert.Equal(t, 1, store.Len())
}

func TestIdempotency_KeepsKeyOnClientError(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusUnprocessableEntity
	router := newIdempotentRouter(IdempotencyConfig{Store: store}, &status)

	path := "/api/v1/loans/0b7c/repayments"
	sendWithKey(router, http.MethodPost, path, "u1", "k-1")
	assert.Equal(t, http.StatusConflict, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)
}

func TestIdempotency_IgnoresReads(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusOK
	router := newIdempotentRouter(IdempotencyConfig{Store: store}, &status)

	for range 2 {
		assert.Equal(t, http.StatusOK, sendWithKey(router, http.MethodGet, "/api/v1/loans/1", "u1", "k-1").Code)
	}
	assert.Equal(t, 0, store.Len())
}

func TestIdempotency_RejectsLongKey(t *testing.T) {
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	status := http.StatusCreated
	router := newIdempotentRouter(IdempotencyConfig{Store: store}, &status)

	w := sendWithKey(router, http.MethodPost, "/api/v1/loans/1/repayments", "u1", strings.Repeat("k", 256))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotency_FailsOpenWhenStoreErrors(t *testing.T) {
	status := http.StatusCreated
	router := newIdempotentRouter(IdempotencyConfig{Store: failingStore{}}, &status)

	path := "/api/v1/loans/1/repayments"
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)
	assert.Equal(t, http.StatusCreated, sendWithKey(router, http.MethodPost, path, "u1", "k-1").Code)
}
