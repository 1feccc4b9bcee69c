package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-123", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	SetSecret("test-secret")

	// Same secret, same shape, but minted by a different service.
	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		UserID: "user-123",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "some-other-service",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	token, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = Parse(token)
	assert.ErrorIs(t, err, jwtlib.ErrTokenInvalidIssuer)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")
	_, err := Parse("not.a.token")
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := Sign("user-123", time.Minute)
	require.NoError(t, err)

	SetSecret("secret-b")
	_, err = Parse(token)
	assert.Error(t, err)
}
