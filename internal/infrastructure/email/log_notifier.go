package email

import (
	"context"

	usecase "authboilerplate/backend/internal/usecase/auth"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	links  Links
	logger *zap.Logger
}

var _ usecase.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(appURL string, logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{links: NewLinks(appURL), logger: logger}
}

func (n *LogNotifier) SendVerificationEmail(ctx context.Context, to, token, name string) bool {
	n.logger.Info("verification email",
		zap.String("to", to),
		zap.String("link", n.links.VerifyEmail(token)),
	)
	return true
}

func (n *LogNotifier) SendPasswordResetEmail(ctx context.Context, to, token, name string) bool {
	n.logger.Info("password reset email",
		zap.String("to", to),
		zap.String("link", n.links.ResetPassword(token)),
	)
	return true
}

func (n *LogNotifier) SendWelcomeEmail(ctx context.Context, to, name string) bool {
	n.logger.Info("welcome email", zap.String("to", to))
	return true
}
