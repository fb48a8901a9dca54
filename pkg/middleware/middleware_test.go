package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository/memory"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	log := zap.NewNop()
	repo := memory.NewRepository(log)
	tokens := utils.NewTokenManager(utils.JWTConfig{Secret: "secret", ExpiryHours: 1})

	user := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "alice", Email: "a@example.com", Role: entity.RoleModerator}
	require.NoError(t, repo.User.Create(context.Background(), user))
	valid, err := tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)
	ghost, err := tokens.Issue(uuid.New(), "ghost")
	require.NoError(t, err)

	var seen utils.AuthUser
	var seenToken string
	var authenticated bool
	handler := Authenticate(tokens, repo.User, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authenticated = utils.GetAuthUser(r.Context())
		if authenticated {
			seenToken, _ = utils.GetTokenFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantAuth bool
	}{
		{"no header", "", http.StatusOK, false},
		{"valid token", "Bearer " + valid, http.StatusOK, true},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, false},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, false},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticated = false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantAuth, authenticated)
		})
	}

	assert.Equal(t, "moderator", seen.Role)
	assert.Equal(t, user.ID, seen.ID)
	assert.Equal(t, valid, seenToken)
}

func TestAuthorize(t *testing.T) {
	handler := Authorize(policy.Catalog, policy.Create, zap.NewNop())(http.HandlerFunc(okHandler))

	serve := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden, serve(utils.SetAuthUser(context.Background(), utils.AuthUser{ID: uuid.New(), Role: "user"})))
	assert.Equal(t, http.StatusOK, serve(utils.SetAuthUser(context.Background(), utils.AuthUser{ID: uuid.New(), Role: "admin"})))
	assert.Equal(t, http.StatusOK, serve(utils.SetAuthUser(context.Background(), utils.AuthUser{ID: uuid.New(), Role: "user", IsSuperuser: true})))
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth()(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	allowed, _, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are limited independently")
}

func TestNewLimiterDisabled(t *testing.T) {
	limiter := NewLimiter(utils.RateLimitConfig{AuthRequests: 0}, nil)
	for i := 0; i < 100; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, assert.AnError
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, zap.NewNop())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/titles", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
