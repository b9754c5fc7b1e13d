package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchey-api/internal/models"
)

func issuerAt(secret string, ttl time.Duration, now time.Time) *TokenIssuer {
	issuer := NewTokenIssuer(secret, ttl)
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestIssueAndParse(t *testing.T) {
	issuer := issuerAt("secret", time.Hour, fixedNow)

	token, err := issuer.Issue(models.User{ID: 7, Email: "seven@pitchey.test", UserType: models.UserTypeCreator})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "seven@pitchey.test", claims.Email)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := issuerAt("secret", time.Hour, fixedNow).Issue(models.User{ID: 7})
	require.NoError(t, err)

	_, err = issuerAt("secret", time.Hour, fixedNow.Add(2*time.Hour)).Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := issuerAt("secret", time.Hour, fixedNow).Issue(models.User{ID: 7})
	require.NoError(t, err)

	_, err = issuerAt("other", time.Hour, fixedNow).Parse(token)
	require.Error(t, err)
}

func TestParseRequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuerAt("secret", time.Hour, fixedNow).Parse(token)
	require.Error(t, err)
}

func TestParseFallsBackToSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Minute))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	claims, err := issuerAt("secret", time.Hour, fixedNow).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
}
