package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lprime.com/licserver/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	svc, err := auth.NewTokenService("jwt-secret", time.Hour)
	require.NoError(t, err)

	token, exp, err := svc.Issue("admin-1", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "admin", claims.Username)
}

func TestParseRejects(t *testing.T) {
	svc, err := auth.NewTokenService("jwt-secret", time.Hour)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		past := svc.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
		token, _, err := past.Issue("admin-1", "admin")
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.True(t, errors.Is(err, auth.ErrExpiredToken), "got %v", err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := auth.NewTokenService("other-secret", time.Hour)
		require.NoError(t, err)
		token, _, err := other.Issue("admin-1", "admin")
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.Claims{
			AdminID: "admin-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("jwt-secret"))
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		_, err = svc.Parse("")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenService("", time.Hour)
	assert.ErrorIs(t, err, auth.ErrEmptySecret)
}
