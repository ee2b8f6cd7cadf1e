package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/schooltransit/backend/internal/auth"
	"github.com/schooltransit/backend/internal/models"
)

func newTestToken(t *testing.T, service *auth.Service, role models.Role) string {
	t.Helper()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "testuser",
		Role:     role,
	}
	token, err := service.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	service, err := auth.NewService()
	require.NoError(t, err)
	m := NewAuthMiddleware(service)

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
		rec := httptest.NewRecorder()

		m.Authenticate(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		m.Authenticate(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token adds claims to context", func(t *testing.T) {
		token := newTestToken(t, service, models.RoleDriver)
		req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		var claims *models.Claims
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ = GetUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		m.Authenticate(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
		assert.Equal(t, models.RoleDriver, claims.Role)
	})
}

func TestAuthMiddleware_AuthenticateOptional(t *testing.T) {
	service, err := auth.NewService()
	require.NoError(t, err)
	m := NewAuthMiddleware(service)

	t.Run("missing header passes through anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		rec := httptest.NewRecorder()

		var hasClaims bool
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasClaims = GetUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		m.AuthenticateOptional(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, hasClaims)
	})

	t.Run("valid token adds claims to context", func(t *testing.T) {
		token := newTestToken(t, service, models.RoleAdmin)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		var claims *models.Claims
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ = GetUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		m.AuthenticateOptional(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		m.AuthenticateOptional(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func requestWithClaims(role models.Role) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	claims := &models.Claims{UserID: "u1", Username: "testuser", Role: role}
	ctx := context.WithValue(req.Context(), UserContextKey, claims)
	return req.WithContext(ctx)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	service, _ := auth.NewService()
	m := NewAuthMiddleware(service)

	gate := m.RequireRole(models.RoleDriver, models.RoleSupervisor)(okHandler())

	t.Run("allowed role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, requestWithClaims(models.RoleSupervisor))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin passes every gate", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, requestWithClaims(models.RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, requestWithClaims(models.RoleParent))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	service, _ := auth.NewService()
	m := NewAuthMiddleware(service)

	gate := m.RequirePermission("update_passenger_status")(okHandler())

	t.Run("driver can update passenger status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, requestWithClaims(models.RoleDriver))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("parent cannot update passenger status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, requestWithClaims(models.RoleParent))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	m := NewRateLimitMiddleware()
	limited := m.RateLimit(2, 60)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	other := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
