package token

import (
	"testing"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "auth-test")
	session := domain.Session{
		UserID:        "u1",
		Email:         "a@example.com",
		Name:          "Alice",
		EmailVerified: true,
		Role:          domain.RoleAdmin,
	}

	tok, expiresAt, err := m.Generate(session)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, "auth-test")
	m.nowFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := m.Generate(domain.Session{UserID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)

	m.nowFunc = time.Now
	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "auth-test")

	other := NewJWTManager("other-secret", time.Hour, "auth-test")
	tok, _, err := other.Generate(domain.Session{UserID: "u1"})
	require.NoError(t, err)
	_, err = m.Validate(tok)
	assert.Error(t, err)

	wrongIssuer := NewJWTManager("test-secret", time.Hour, "someone-else")
	tok, _, err = wrongIssuer.Generate(domain.Session{UserID: "u1"})
	require.NoError(t, err)
	_, err = m.Validate(tok)
	assert.Error(t, err)

	_, err = m.Validate("not-a-jwt")
	assert.Error(t, err)
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "auth-test")
	claims := Claims{UserID: "u1", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Issuer: "auth-test"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(tok)
	assert.Error(t, err)
}
