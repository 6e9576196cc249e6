// Package mail provides the outbound email sender used for verification
// codes, password resets and admin alerts.
package mail

import (
	"context"
	"fmt"

	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/slogx"
	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a plain-text email to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config holds SMTP connection settings. An empty Host selects the
// log-only sender for local development.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay using go-mail.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender builds an authenticated SMTP sender from config.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail: set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

// LogSender writes outbound mail to the log instead of delivering it.
// Used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, body string) error {
	slogx.FromContext(ctx).Info("mail (log only)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// AuditSender wraps another Sender and records every delivery attempt in
// the mail audit log. Audit failures never mask the send outcome.
type AuditSender struct {
	Next  Sender
	Store store.Store
}

func (a *AuditSender) Send(ctx context.Context, to, subject, body string) error {
	err := a.Next.Send(ctx, to, subject, body)

	status := "sent"
	errMsg := ""
	if err != nil {
		status = "failed"
		errMsg = err.Error()
	}
	if auditErr := a.Store.MailLog().Create(ctx, to, subject, status, errMsg); auditErr != nil {
		slogx.FromContext(ctx).Warn("failed to record mail audit entry", "error", auditErr)
	}

	return err
}
