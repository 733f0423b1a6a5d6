package identity

import (
	"context"
	"fmt"
)

// Email is the outbound message handed to the transport collaborator.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer is the consumed transport interface. The transport itself lives
// outside this package; a failure here triggers the reset-token rollback.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, msg Email) error

func (f MailerFunc) Send(ctx context.Context, msg Email) error {
	return f(ctx, msg)
}

// ResetEmail builds the password-reset message pointing at
// <baseURL>/reset-password/<rawToken>.
func ResetEmail(to, baseURL, rawToken string) Email {
	resetURL := fmt.Sprintf("%s/reset-password/%s", baseURL, rawToken)

	html := fmt.Sprintf(`
		<p>You requested to reset your password.</p>
		<p>Click the link below:</p>
		<a href="%s">%s</a>
		<p>This link expires in <strong>10 minutes</strong>.</p>
	`, resetURL, resetURL)

	return Email{
		To:      to,
		Subject: "PAWdoption Password Reset",
		HTML:    html,
	}
}

type logMailer struct {
	logger Logger
}

// NewLogMailer returns a development transport that only logs the message.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return logMailer{logger: logger}
}

func (m logMailer) Send(ctx context.Context, msg Email) error {
	m.logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	m.logger.Info("to: %s", msg.To)
	m.logger.Info("subject: %s", msg.Subject)
	return nil
}
