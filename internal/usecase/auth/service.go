package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"

	"go.uber.org/zap"
)

// Tokens issues and redeems verification and reset tokens.
type Tokens interface {
	CreateEmailVerificationToken(ctx context.Context, email string) (string, error)
	CreatePasswordResetToken(ctx context.Context, email string) (string, error)
	CheckToken(ctx context.Context, secret string, kind domain.TokenKind) (domain.TokenCheck, error)
	VerifyToken(ctx context.Context, secret string, kind domain.TokenKind) (domain.TokenCheck, error)
}

// Notifier delivers account emails. A false result is logged and never fails the caller.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token, name string) bool
	SendPasswordResetEmail(ctx context.Context, email, token, name string) bool
	SendWelcomeEmail(ctx context.Context, email, name string) bool
}

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users    domain.Directory
	tokens   Tokens
	notifier Notifier
	sessions SessionManager
	logger   *zap.Logger
}

// NewService constructs an auth service.
func NewService(users domain.Directory, tokens Tokens, notifier Notifier, sessions SessionManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginResult is a signed session plus the identity it carries.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      domain.Session `json:"user"`
}

// Register creates the user and sends a verification email. Token or mail
// failures after the user is stored are logged and do not fail registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	user, err := s.users.CreateUser(ctx, domain.NewUser{
		Email:    email,
		Password: in.Password,
		Name:     strings.TrimSpace(in.Name),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("id", user.ID), zap.String("role", string(user.Role)))

	s.sendVerification(ctx, user)
	return user, nil
}

// Login validates credentials and returns a signed session.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.ValidateCredentials(ctx, email, creds.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	session := domain.SessionFor(user)
	token, expiresAt, err := s.sessions.Generate(session)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: session}, nil
}

// Authenticate validates a session token and refreshes it from the directory,
// so deleted users are rejected and promotions apply immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claimed, err := s.sessions.Validate(token)
	if err != nil {
		return domain.Session{}, domain.ErrSessionInvalid
	}
	user, err := s.users.GetUserByID(ctx, claimed.UserID)
	if err != nil {
		return domain.Session{}, err
	}
	if user == nil {
		return domain.Session{}, domain.ErrSessionInvalid
	}
	return domain.SessionFor(user), nil
}

// VerifyEmail redeems a verification token and marks the address verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	check, err := s.tokens.VerifyToken(ctx, token, domain.TokenEmailVerification)
	if err != nil {
		return err
	}
	if !check.Valid {
		return check.Reason
	}

	ok, err := s.users.VerifyUserEmail(ctx, check.Email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	user, err := s.users.GetUserByEmail(ctx, check.Email)
	if err != nil || user == nil {
		s.logger.Warn("welcome email skipped", zap.String("email", check.Email), zap.Error(err))
		return nil
	}
	if !s.notifier.SendWelcomeEmail(ctx, user.Email, user.Name) {
		s.logger.Warn("welcome email not delivered", zap.String("email", user.Email))
	}
	return nil
}

// ResendVerification issues a fresh verification token for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if user.EmailVerified {
		return domain.ErrEmailAlreadyVerified
	}
	s.sendVerification(ctx, user)
	return nil
}

// ForgotPassword sends a reset link when the account exists. It reports
// success either way so callers cannot enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Info("password reset requested for unknown account")
		return nil
	}

	token, err := s.tokens.CreatePasswordResetToken(ctx, user.Email)
	if err != nil {
		return err
	}
	if !s.notifier.SendPasswordResetEmail(ctx, user.Email, token, user.Name) {
		s.logger.Warn("password reset email not delivered", zap.String("email", user.Email))
	}
	return nil
}

// VerifyResetToken checks a reset token without consuming it and returns its email.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (string, error) {
	check, err := s.tokens.CheckToken(ctx, token, domain.TokenPasswordReset)
	if err != nil {
		return "", err
	}
	if !check.Valid {
		return "", check.Reason
	}
	return check.Email, nil
}

// ResetPassword redeems a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	check, err := s.tokens.VerifyToken(ctx, token, domain.TokenPasswordReset)
	if err != nil {
		return err
	}
	if !check.Valid {
		return check.Reason
	}

	ok, err := s.users.UpdateUserPassword(ctx, check.Email, password)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	s.logger.Info("password reset completed", zap.String("email", check.Email))
	return nil
}

// TestEmailToken is the placeholder secret carried by test emails. It is never stored.
const TestEmailToken = "test-token-123"

// SendTestEmail delivers a verification email whose link cannot be redeemed.
func (s *Service) SendTestEmail(ctx context.Context, email string) bool {
	return s.notifier.SendVerificationEmail(ctx, strings.TrimSpace(email), TestEmailToken, "Test User")
}

func (s *Service) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.tokens.CreateEmailVerificationToken(ctx, user.Email)
	if err != nil {
		s.logger.Error("verification token not issued", zap.String("email", user.Email), zap.Error(err))
		return
	}
	if !s.notifier.SendVerificationEmail(ctx, user.Email, token, user.Name) {
		s.logger.Warn("verification email not delivered", zap.String("email", user.Email))
	}
}
