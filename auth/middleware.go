// HTTP middleware for request authentication and admin authorization.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/config"
)

// ContextKey is a dedicated type for context keys to avoid collisions.
type ContextKey string

// UserIDKey is the context key under which the authenticated user's id is stored.
const UserIDKey ContextKey = "userID"

// RoleLookup resolves a user id to that user's current role. The admin
// middleware depends on this instead of a role claim baked into the token,
// so a role change takes effect on the very next request.
type RoleLookup func(ctx context.Context, userID int) (string, error)

// JWTMiddleware verifies the bearer token from the Authorization header and
// places the authenticated user's id in the request context.
func JWTMiddleware(cfg *config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, apperror.NewUnauthorizedError("Authorization header is missing", nil))
				return
			}

			// Expected format: "Bearer {token}".
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, r, apperror.NewUnauthorizedError("Authorization header format must be Bearer {token}", nil))
				return
			}

			tokenString := parts[1]
			claims := &CustomClaims{}

			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					WriteError(w, r, apperror.NewUnauthorizedError("invalid token signature", nil))
					return
				}
				WriteError(w, r, apperror.NewUnauthorizedError(fmt.Sprintf("invalid token: %v", err), err))
				return
			}

			if !token.Valid {
				WriteError(w, r, apperror.NewUnauthorizedError("invalid token", nil))
				return
			}

			if claims.UserID == 0 {
				WriteError(w, r, apperror.NewUnauthorizedError("invalid token: user_id claim is missing", nil))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose authenticated user does not currently
// hold the admin role. It must run after JWTMiddleware.
func AdminOnly(lookup RoleLookup) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				WriteError(w, r, apperror.NewUnauthorizedError("user id not found in context", nil))
				return
			}

			role, err := lookup(r.Context(), userID)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if role != RoleAdmin {
				WriteError(w, r, apperror.NewForbiddenError("not authorized as admin", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext retrieves the authenticated user's id from the
// request context. The second return value is false when no id is present.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}
