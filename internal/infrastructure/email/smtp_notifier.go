package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	usecase "authboilerplate/backend/internal/usecase/auth"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "noreply@example.com"

// SMTPConfig holds the outbound mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier renders HTML notifications and delivers them over SMTP.
type SMTPNotifier struct {
	client sender
	from   string
	links  Links
	logger *zap.Logger
}

var _ usecase.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds a notifier for the relay described by cfg.
func NewSMTPNotifier(cfg SMTPConfig, appURL string, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return newSMTPNotifier(client, cfg.From, appURL, logger), nil
}

func newSMTPNotifier(client sender, from, appURL string, logger *zap.Logger) *SMTPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if from == "" {
		from = DefaultFrom
	}
	return &SMTPNotifier{client: client, from: from, links: NewLinks(appURL), logger: logger}
}

func (n *SMTPNotifier) SendVerificationEmail(ctx context.Context, to, token, name string) bool {
	return n.send(ctx, to, subjectVerify, "verify", templateData{Name: greetingName(name), Link: n.links.VerifyEmail(token)})
}

func (n *SMTPNotifier) SendPasswordResetEmail(ctx context.Context, to, token, name string) bool {
	return n.send(ctx, to, subjectReset, "reset", templateData{Name: greetingName(name), Link: n.links.ResetPassword(token)})
}

func (n *SMTPNotifier) SendWelcomeEmail(ctx context.Context, to, name string) bool {
	return n.send(ctx, to, subjectWelcome, "welcome", templateData{Name: greetingName(name), Link: n.links.Dashboard()})
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, tmpl string, data templateData) bool {
	msg, err := n.compose(to, subject, tmpl, data)
	if err != nil {
		n.logger.Error("compose email failed", zap.String("to", to), zap.String("template", tmpl), zap.Error(err))
		return false
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Error("send email failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return false
	}
	n.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return true
}

func (n *SMTPNotifier) compose(to, subject, tmpl string, data templateData) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}
