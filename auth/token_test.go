package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)

	token, err := m.Generate("ops", RoleAdmin, time.Now())
	require.NoError(t, err)

	claims, err := m.VerifyRole(token, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerifyRejects(t *testing.T) {
	m := NewTokenManager("s3cret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("other", time.Hour).Generate("ops", RoleAdmin, time.Now())
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := m.Generate("ops", RoleAdmin, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong role", func(t *testing.T) {
		token, err := m.Generate("viewer", "player", time.Now())
		require.NoError(t, err)
		_, err = m.VerifyRole(token, RoleAdmin)
		assert.ErrorIs(t, err, ErrInsufficientRole)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMissingSecret(t *testing.T) {
	m := NewTokenManager("", time.Hour)

	_, err := m.Generate("ops", RoleAdmin, time.Now())
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = m.Verify("x.y.z")
	assert.ErrorIs(t, err, ErrNoSecret)
}
