package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client's retry key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// IdempotencyConfig configures the Idempotency-Key guard
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency rejects a repeated write carrying an Idempotency-Key that was
// already accepted for the same user, method and route. Requests without the
// header pass through. Keys of requests that end in a server error are
// released so the client can retry.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		if cfg.Store == nil || !isWrite(c.Request.Method) {
			c.Next()
			return
		}
		raw := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if raw == "" {
			c.Next()
			return
		}
		if len(raw) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		key := idempotencyScope(c, raw)
		ctx := c.Request.Context()
		fresh, err := cfg.Store.MarkProcessed(ctx, key, ttl)
		if err != nil {
			log.Error("Idempotency store unavailable, continuing without guard",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !fresh {
			abortWithError(c, dto.ErrCodeIdempotencyReplay, "Request with this Idempotency-Key was already accepted")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			// request context may already be cancelled by the timeout middleware
			if err := cfg.Store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

func idempotencyScope(c *gin.Context, key string) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return "http:" + clientKey(c) + ":" + c.Request.Method + ":" + route + ":" + key
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
