package token

import (
	"errors"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
	usecase "authboilerplate/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager issues and validates session JWTs.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	nowFunc    func() time.Time
}

// NewJWTManager constructs a manager with the provided secret and expiration.
func NewJWTManager(secret string, expiration time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		nowFunc:    time.Now,
	}
}

// Ensure JWTManager implements the SessionManager interface.
var _ usecase.SessionManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	UserID        string `json:"uid"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// Generate creates a signed JWT carrying the session.
func (m *JWTManager) Generate(session domain.Session) (string, time.Time, error) {
	now := m.nowFunc().UTC()
	expiresAt := now.Add(m.expiration)
	claims := Claims{
		UserID:        session.UserID,
		Email:         session.Email,
		Name:          session.Name,
		EmailVerified: session.EmailVerified,
		Role:          string(session.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses and validates the token returning the session when valid.
func (m *JWTManager) Validate(tokenString string) (domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.nowFunc))
	if err != nil {
		return domain.Session{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Session{}, errors.New("invalid token claims")
	}
	return domain.Session{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
		Role:          domain.UserRole(claims.Role),
	}, nil
}
