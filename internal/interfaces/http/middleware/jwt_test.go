package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/auth"
	"github.com/farmsupport/vsla/internal/infrastructure/config"
	"github.com/farmsupport/vsla/internal/infrastructure/logger"
	"github.com/farmsupport/vsla/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, expiration time.Duration) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-with-enough-length",
		Issuer:                "vsla-test",
		AccessTokenExpiration: expiration,
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(t, time.Hour)
	userID := uuid.New()
	memberID := uuid.New()
	groupID := uuid.New()

	token, _, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:   userID,
		MemberID: &memberID,
		GroupID:  &groupID,
		Roles:    []string{shared.RoleFieldOfficer},
	})
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(svc))
	router.GET("/health", okHandler)
	router.GET("/api/v1/me", func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		claims, ok := GetJWTClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"user":       actor.UserID.String(),
			"group":      c.GetString(GroupIDKey),
			"claims":     claims.UserID,
			"ctx_user":   logger.GetUserID(c.Request.Context()),
			"is_officer": actor.HasRole(shared.RoleFieldOfficer),
		})
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user"])
		assert.Equal(t, groupID.String(), body["group"])
		assert.Equal(t, userID.String(), body["claims"])
		assert.Equal(t, userID.String(), body["ctx_user"])
		assert.Equal(t, true, body["is_officer"])
	})

	t.Run("skip path", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty bearer", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage token", BearerPrefix + "not-a-jwt", dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(t, time.Nanosecond)
	token, _, err := svc.GenerateAccessToken(auth.GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService(t, time.Hour)))
	router.GET("/api/v1/me", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeError(t, w).Code)
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		switch c.GetHeader("X-Role") {
		case "":
		case "none":
			c.Set(ActorKey, shared.NewActor(uuid.New()))
		default:
			c.Set(ActorKey, shared.NewActor(uuid.New(), c.GetHeader("X-Role")))
		}
		c.Next()
	}, RequireRole(shared.RolePlatformAdmin, shared.RoleFieldOfficer))
	router.GET("/test", okHandler)

	send := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(""))
	assert.Equal(t, http.StatusForbidden, send("none"))
	assert.Equal(t, http.StatusOK, send(shared.RoleFieldOfficer))
	assert.Equal(t, http.StatusOK, send(shared.RolePlatformAdmin))
}
