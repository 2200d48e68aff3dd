package auth_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/libtrack-go/auth"
	"github.com/user/libtrack-go/config"
)

func newTokenService(secret string, duration time.Duration) *auth.AuthService {
	// Token generation never touches the database, so a nil pool is fine here.
	return auth.NewAuthService(nil, config.AuthConfig{
		JWTSecret:     secret,
		TokenDuration: duration,
	})
}

func parseClaims(t *testing.T, tokenString, secret string) *auth.CustomClaims {
	t.Helper()
	claims := &auth.CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return claims
}

func Test_GenerateToken_RoundTrip(t *testing.T) {
	service := newTokenService("test-secret", time.Hour)

	tokenString, err := service.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims := parseClaims(t, tokenString, "test-secret")
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "libtrack", claims.Issuer)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateToken_RejectedWithWrongSecret(t *testing.T) {
	service := newTokenService("right-secret", time.Hour)

	tokenString, err := service.GenerateToken(7)
	require.NoError(t, err)

	claims := &auth.CustomClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}

func Test_GenerateToken_ExpiredTokenRejected(t *testing.T) {
	service := newTokenService("test-secret", -time.Minute)

	tokenString, err := service.GenerateToken(7)
	require.NoError(t, err)

	claims := &auth.CustomClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func Test_BcryptHashAndCompare(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("strongpassword123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("strongpassword123")))
	assert.ErrorIs(t,
		bcrypt.CompareHashAndPassword(hash, []byte("wrongpassword")),
		bcrypt.ErrMismatchedHashAndPassword)
}
