// Package verification issues and redeems single-use email verification and
// password reset tokens.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	// EmailVerificationTTL bounds how long a verification link stays usable.
	EmailVerificationTTL = 24 * time.Hour
	// PasswordResetTTL bounds how long a reset link stays usable.
	PasswordResetTTL = time.Hour

	secretBytes = 32
)

// Service is the token lifecycle authority.
type Service struct {
	tokens   domain.TokenRepository
	logger   *zap.Logger
	nowFunc  func() time.Time
	readRand func([]byte) (int, error)
}

// NewService constructs a token service over the given repository.
func NewService(tokens domain.TokenRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tokens:   tokens,
		logger:   logger,
		nowFunc:  time.Now,
		readRand: rand.Read,
	}
}

// CreateEmailVerificationToken issues a 24h verification secret for email.
func (s *Service) CreateEmailVerificationToken(ctx context.Context, email string) (string, error) {
	return s.create(ctx, email, domain.TokenEmailVerification, EmailVerificationTTL)
}

// CreatePasswordResetToken issues a 1h reset secret for email.
func (s *Service) CreatePasswordResetToken(ctx context.Context, email string) (string, error) {
	return s.create(ctx, email, domain.TokenPasswordReset, PasswordResetTTL)
}

func (s *Service) create(ctx context.Context, email string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := s.readRand(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	now := s.nowFunc().UTC()
	token := &domain.VerificationToken{
		ID:         ksuid.New().String(),
		Email:      email,
		SecretHash: HashSecret(secret),
		Kind:       kind,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}

	s.logger.Debug("token issued",
		zap.String("id", token.ID),
		zap.String("kind", string(kind)),
		zap.String("prefix", Prefix(secret)),
		zap.Time("expires_at", token.ExpiresAt),
	)
	return secret, nil
}

// CheckToken validates secret for kind without consuming it.
func (s *Service) CheckToken(ctx context.Context, secret string, kind domain.TokenKind) (domain.TokenCheck, error) {
	token, err := s.tokens.Find(ctx, HashSecret(secret))
	if err != nil {
		return domain.TokenCheck{}, fmt.Errorf("find token: %w", err)
	}
	return s.classify(token, kind), nil
}

// VerifyToken validates secret for kind and, on success, marks it used.
// Exactly one caller can redeem a given secret.
func (s *Service) VerifyToken(ctx context.Context, secret string, kind domain.TokenKind) (domain.TokenCheck, error) {
	hash := HashSecret(secret)
	token, err := s.tokens.Find(ctx, hash)
	if err != nil {
		return domain.TokenCheck{}, fmt.Errorf("find token: %w", err)
	}
	check := s.classify(token, kind)
	if !check.Valid {
		return check, nil
	}

	marked, err := s.tokens.MarkUsed(ctx, hash)
	if err != nil {
		return domain.TokenCheck{}, fmt.Errorf("mark token used: %w", err)
	}
	if marked {
		s.logger.Debug("token redeemed", zap.String("id", token.ID), zap.String("kind", string(kind)))
		return check, nil
	}

	// Lost the race to another redemption; report the state it left behind.
	token, err = s.tokens.Find(ctx, hash)
	if err != nil {
		return domain.TokenCheck{}, fmt.Errorf("find token: %w", err)
	}
	check = s.classify(token, kind)
	if check.Valid {
		check = domain.TokenCheck{Reason: domain.ErrTokenUsed}
	}
	return check, nil
}

// CleanupExpiredTokens removes every token past its expiry and reports how many were deleted.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.nowFunc().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired tokens removed", zap.Int64("count", n))
	}
	return n, nil
}

// RunCleanup calls CleanupExpiredTokens every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredTokens(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("token cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) classify(token *domain.VerificationToken, kind domain.TokenKind) domain.TokenCheck {
	if err := token.Validate(kind, s.nowFunc().UTC()); err != nil {
		return domain.TokenCheck{Reason: err}
	}
	return domain.TokenCheck{Valid: true, Email: token.Email}
}

// HashSecret derives the storage key for a token secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Prefix shortens a secret for log lines.
func Prefix(secret string) string {
	if len(secret) <= 10 {
		return secret
	}
	return secret[:10] + "..."
}
