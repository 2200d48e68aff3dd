package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
	"github.com/user/libtrack-go/config"
)

const testSecret = "middleware-test-secret"

func authConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:     testSecret,
		TokenDuration: time.Hour,
	}
}

// echoUserID is the protected handler used behind the middleware under test:
// it reports the user id the middleware put into the context.
func echoUserID(t *testing.T) (http.HandlerFunc, *int) {
	t.Helper()
	var seen int
	handler := func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		require.True(t, ok)
		seen = userID
		w.WriteHeader(http.StatusOK)
	}
	return handler, &seen
}

func Test_JWTMiddleware_ValidToken(t *testing.T) {
	service := auth.NewAuthService(nil, *authConfig())
	tokenString, err := service.GenerateToken(17)
	require.NoError(t, err)

	handler, seen := echoUserID(t)
	protected := auth.JWTMiddleware(authConfig())(handler)

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 17, *seen)
}

func Test_JWTMiddleware_Rejections(t *testing.T) {
	expiredService := auth.NewAuthService(nil, config.AuthConfig{
		JWTSecret:     testSecret,
		TokenDuration: -time.Minute,
	})
	expiredToken, err := expiredService.GenerateToken(17)
	require.NoError(t, err)

	otherSecretService := auth.NewAuthService(nil, config.AuthConfig{
		JWTSecret:     "a-different-secret",
		TokenDuration: time.Hour,
	})
	foreignToken, err := otherSecretService.GenerateToken(17)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "missing_header", authHeader: ""},
		{name: "not_bearer", authHeader: "Basic dXNlcjpwYXNz"},
		{name: "malformed_header", authHeader: "Bearer"},
		{name: "garbage_token", authHeader: "Bearer not.a.jwt"},
		{name: "expired_token", authHeader: "Bearer " + expiredToken},
		{name: "wrong_secret", authHeader: "Bearer " + foreignToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			protected := auth.JWTMiddleware(authConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "protected handler must not run")

			var resp apperror.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func Test_AdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		lookup     auth.RoleLookup
		wantStatus int
		wantCalled bool
	}{
		{
			name: "admin_passes",
			lookup: func(ctx context.Context, userID int) (string, error) {
				return auth.RoleAdmin, nil
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name: "member_forbidden",
			lookup: func(ctx context.Context, userID int) (string, error) {
				return auth.RoleMember, nil
			},
			wantStatus: http.StatusForbidden,
			wantCalled: false,
		},
		{
			name: "vanished_user_unauthorized",
			lookup: func(ctx context.Context, userID int) (string, error) {
				return "", apperror.NewUnauthorizedError("user no longer exists", nil)
			},
			wantStatus: http.StatusUnauthorized,
			wantCalled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			guarded := auth.AdminOnly(tt.lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			// Simulate JWTMiddleware having already run.
			ctx := context.WithValue(req.Context(), auth.UserIDKey, 5)
			rec := httptest.NewRecorder()

			guarded.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func Test_AdminOnly_WithoutAuthenticatedUser(t *testing.T) {
	guarded := auth.AdminOnly(func(ctx context.Context, userID int) (string, error) {
		t.Fatal("lookup must not be called without a user id in context")
		return "", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()

	guarded.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
