package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func TestLinks(t *testing.T) {
	l := NewLinks("https://app.example.com/")
	assert.Equal(t, "https://app.example.com/verify-email?token=abc", l.VerifyEmail("abc"))
	assert.Equal(t, "https://app.example.com/reset-password?token=abc", l.ResetPassword("abc"))
	assert.Equal(t, "https://app.example.com/dashboard", l.Dashboard())

	assert.Equal(t, DefaultAppURL+"/verify-email?token=x", NewLinks("").VerifyEmail("x"))
}

func TestLogNotifierLogsLinks(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier("http://localhost:3000", zap.New(core))
	ctx := context.Background()

	assert.True(t, n.SendVerificationEmail(ctx, "a@example.com", "tok1", "A"))
	assert.True(t, n.SendPasswordResetEmail(ctx, "a@example.com", "tok2", ""))
	assert.True(t, n.SendWelcomeEmail(ctx, "a@example.com", "A"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "http://localhost:3000/verify-email?token=tok1", entries[0].ContextMap()["link"])
	assert.Equal(t, "http://localhost:3000/reset-password?token=tok2", entries[1].ContextMap()["link"])
	assert.Equal(t, "a@example.com", entries[2].ContextMap()["to"])
}

func TestSMTPNotifierSends(t *testing.T) {
	fake := &fakeSender{}
	n := newSMTPNotifier(fake, "", "https://app.example.com", zap.NewNop())
	ctx := context.Background()

	require.True(t, n.SendVerificationEmail(ctx, "a@example.com", "tok", "Alice"))
	require.True(t, n.SendPasswordResetEmail(ctx, "a@example.com", "tok", ""))
	require.True(t, n.SendWelcomeEmail(ctx, "a@example.com", ""))
	require.Len(t, fake.sent, 3)

	subjects := []string{}
	for _, m := range fake.sent {
		subjects = append(subjects, m.GetGenHeader(mail.HeaderSubject)...)
		rcpts, err := m.GetRecipients()
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com"}, rcpts)
	}
	assert.Equal(t, []string{"Verify your email address", "Reset your password", "Welcome to Auth Boilerplate!"}, subjects)
	assert.Contains(t, fake.sent[0].GetFromString()[0], DefaultFrom)
}

func TestSMTPNotifierFailureReturnsFalse(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	n := newSMTPNotifier(&fakeSender{err: errors.New("relay down")}, "auth@example.com", "", zap.New(core))

	assert.False(t, n.SendWelcomeEmail(context.Background(), "a@example.com", "A"))
	assert.Equal(t, 1, logs.FilterMessage("send email failed").Len())

	assert.False(t, n.SendWelcomeEmail(context.Background(), "not an address", "A"))
	assert.Equal(t, 1, logs.FilterMessage("compose email failed").Len())
}

func TestTemplatesRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, templates.ExecuteTemplate(&buf, "verify", templateData{Name: greetingName(""), Link: "https://app.example.com/verify-email?token=abc"}))
	body := buf.String()
	assert.Contains(t, body, "Hi there,")
	assert.Contains(t, body, "https://app.example.com/verify-email?token=abc")
	assert.Contains(t, body, "expire in 24 hours")

	buf.Reset()
	require.NoError(t, templates.ExecuteTemplate(&buf, "reset", templateData{Name: "<b>Eve</b>", Link: "https://x/reset-password?token=1"}))
	assert.Contains(t, buf.String(), "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, buf.String(), "expire in 1 hour")
}

func TestNewSMTPNotifierRequiresHost(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPConfig{}, "", nil)
	assert.Error(t, err)

	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFrom, n.from)
}
