package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/domain/shared"
	"github.com/upigw/backend/internal/infrastructure/config"

	"github.com/google/uuid"
)

func testJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-jwt-signing-32b",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "upigw-test",
		MaxRefreshCount:        3,
	})
}

func testUser(role identity.Role) *identity.User {
	return &identity.User{
		BaseEntity: shared.BaseEntity{ID: uuid.New()},
		Username:   "alice",
		Role:       role,
		IsActive:   true,
	}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := testJWTService()
	user := testUser(identity.RoleMerchant)

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.AccessTokenExpiresAt.Before(pair.RefreshTokenExpiresAt))
}

func TestValidateAccessToken(t *testing.T) {
	svc := testJWTService()
	user := testUser(identity.RoleMerchant)

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		claims, err := svc.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)

		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "merchant", claims.Role)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
		assert.NotEmpty(t, claims.ID)

		uid, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, user.ID, uid)
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with wrong secret rejected", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                 "a-completely-different-secret-32byte",
			AccessTokenExpiration:  time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "upigw-test",
			MaxRefreshCount:        3,
		})
		foreign, err := other.GenerateTokenPair(user)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(foreign.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		short := NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-for-jwt-signing-32b",
			AccessTokenExpiration:  -time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "upigw-test",
			MaxRefreshCount:        3,
		})
		pair, err := short.GenerateTokenPair(user)
		require.NoError(t, err)

		_, err = short.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	svc := testJWTService()
	user := testUser(identity.RoleMember)

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	t.Run("refresh produces a new valid pair", func(t *testing.T) {
		newPair, err := svc.RefreshTokenPair(pair.RefreshToken, user)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)

		refreshClaims, err := svc.ValidateRefreshToken(newPair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 1, refreshClaims.RefreshCount)
	})

	t.Run("refresh reflects current role not token role", func(t *testing.T) {
		promoted := testUser(identity.RoleMerchant)
		promoted.ID = user.ID

		newPair, err := svc.RefreshTokenPair(pair.RefreshToken, promoted)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "merchant", claims.Role)
	})

	t.Run("refresh for a different account rejected", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.RefreshToken, testUser(identity.RoleMember))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("refresh count limit enforced", func(t *testing.T) {
		current := pair.RefreshToken
		var err error
		for i := 0; i < 3; i++ {
			var next *TokenPair
			next, err = svc.RefreshTokenPair(current, user)
			require.NoError(t, err)
			current = next.RefreshToken
		}
		_, err = svc.RefreshTokenPair(current, user)
		assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
	})

	t.Run("access token cannot be used as refresh token", func(t *testing.T) {
		_, err := svc.RefreshTokenPair(pair.AccessToken, user)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}

func TestClaimsHelpers(t *testing.T) {
	svc := testJWTService()
	pair, err := svc.GenerateTokenPair(testUser(identity.RoleOwner))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.False(t, claims.GetIssuedAtTime().IsZero())
	assert.Greater(t, claims.GetRemainingTTL(), time.Duration(0))
	assert.LessOrEqual(t, claims.GetRemainingTTL(), 15*time.Minute)
}
