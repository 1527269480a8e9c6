package auth

import (
	"errors"
	"time"
)

// Token validation outcomes. Their messages are safe to show to clients.
var (
	ErrTokenNotFound  = errors.New("Invalid token")
	ErrTokenWrongKind = errors.New("Invalid token type")
	ErrTokenUsed      = errors.New("Token already used")
	ErrTokenExpired   = errors.New("Token expired")
)

// TokenKind tells what a verification token may be redeemed for.
type TokenKind string

const (
	TokenEmailVerification TokenKind = "email_verification"
	TokenPasswordReset     TokenKind = "password_reset"
)

// VerificationToken is a single-use, expiring secret sent out of band.
type VerificationToken struct {
	ID         string
	Email      string
	SecretHash string
	Kind       TokenKind
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Used       bool
}

// Validate classifies the token for kind at now. It returns nil when the token is redeemable.
func (t *VerificationToken) Validate(kind TokenKind, now time.Time) error {
	switch {
	case t == nil:
		return ErrTokenNotFound
	case t.Kind != kind:
		return ErrTokenWrongKind
	case t.Used:
		return ErrTokenUsed
	case now.After(t.ExpiresAt):
		return ErrTokenExpired
	}
	return nil
}

// TokenCheck is the result of checking or redeeming a token.
type TokenCheck struct {
	Valid bool
	Email string
	// Reason is one of the ErrToken* values when Valid is false.
	Reason error
}

// IsTokenFailure reports whether err is one of the token validation outcomes.
func IsTokenFailure(err error) bool {
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenWrongKind) ||
		errors.Is(err, ErrTokenUsed) ||
		errors.Is(err, ErrTokenExpired)
}
