package auth

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/user"
)

func testIssuer(accessTTL time.Duration) *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		SigningKey:      "test-signing-key",
		Issuer:          "ecommerce-backend",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer(15 * time.Minute)
	u := &user.User{
		ID:    uuid.Must(uuid.NewV4()),
		Email: "jane@example.com",
		Role:  user.RoleAdmin,
	}

	token, expiresAt, err := issuer.IssueAccessToken(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.ParseAccessToken(token, false)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, user.RoleAdmin, claims.Role)
}

func TestTokenIssuer_ParseAccessToken(t *testing.T) {
	issuer := testIssuer(15 * time.Minute)
	u := &user.User{ID: uuid.Must(uuid.NewV4()), Email: "jane@example.com", Role: user.RoleCustomer}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := issuer.ParseAccessToken("not-a-jwt", false)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other := NewTokenIssuer(config.JWTConfig{
			SigningKey:      "some-other-key",
			Issuer:          "ecommerce-backend",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		})
		token, _, err := other.IssueAccessToken(u)
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(token, false)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token from a different issuer", func(t *testing.T) {
		other := NewTokenIssuer(config.JWTConfig{
			SigningKey:      "test-signing-key",
			Issuer:          "someone-else",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		})
		token, _, err := other.IssueAccessToken(u)
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(token, false)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects the none signing method", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": u.ID.String(),
			"iss": "ecommerce-backend",
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(token, false)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := testIssuer(-time.Minute)
		token, _, err := expired.IssueAccessToken(u)
		require.NoError(t, err)

		_, err = issuer.ParseAccessToken(token, false)
		assert.ErrorIs(t, err, ErrInvalidToken)

		// The refresh flow still identifies the actor from an expired token.
		claims, err := issuer.ParseAccessToken(token, true)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
	})
}

func TestNewRefreshToken(t *testing.T) {
	first, err := NewRefreshToken()
	require.NoError(t, err)
	second, err := NewRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
