package service

import (
	"context"
	"fmt"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/mail"
	"github.com/micrositio/authd/pkg/slogx"
)

// Notifier sends best-effort admin alerts. Every method swallows delivery
// failures after logging them, alerting must never fail a request.
type Notifier struct {
	Sender     mail.Sender
	AdminEmail string
}

// NewRegistration announces a completed registration.
func (n *Notifier) NewRegistration(ctx context.Context, user domain.User) {
	body := fmt.Sprintf(
		"A new account was registered.\n\nUser ID: %s\nEmail: %s\nUsername: %s\nMatricula: %s\n",
		user.ID, user.Email, user.Username, user.Matricula,
	)
	n.send(ctx, "New account registration", body)
}

// UnauthorizedAttempt reports a registration attempt with a matricula that
// is not on the allowlist.
func (n *Notifier) UnauthorizedAttempt(ctx context.Context, matricula, username string, meta domain.RequestMeta) {
	body := fmt.Sprintf(
		"A registration was attempted with an unauthorized matricula.\n\n"+
			"Matricula: %s\nUsername: %s\nSource IP: %s\nUser agent: %s\nTime: %s\n",
		matricula, username, meta.IPAddress, meta.UserAgent, meta.At.Format("2006-01-02 15:04:05 MST"),
	)
	n.send(ctx, "Unauthorized registration attempt", body)
}

// DuplicateAttempt reports a registration attempt against an existing account.
func (n *Notifier) DuplicateAttempt(ctx context.Context, matricula, username string, meta domain.RequestMeta) {
	body := fmt.Sprintf(
		"A registration was attempted for an already-registered identity.\n\n"+
			"Matricula: %s\nUsername: %s\nSource IP: %s\nUser agent: %s\nTime: %s\n",
		matricula, username, meta.IPAddress, meta.UserAgent, meta.At.Format("2006-01-02 15:04:05 MST"),
	)
	n.send(ctx, "Duplicate registration attempt", body)
}

func (n *Notifier) send(ctx context.Context, subject, body string) {
	if n == nil || n.Sender == nil || n.AdminEmail == "" {
		return
	}
	if err := n.Sender.Send(ctx, n.AdminEmail, subject, body); err != nil {
		slogx.FromContext(ctx).Warn("admin notification failed",
			"subject", subject,
			"error", err,
		)
	}
}
