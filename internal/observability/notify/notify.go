// Package notify hands verification and password-reset links to the operator log
// instead of delivering them.
package notify

import (
	"context"
	"log/slog"
	"net/url"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

// Message kinds recorded in the log.
const (
	KindVerification  = "email_verification"
	KindPasswordReset = "password_reset"
)

// LogNotifier implements ports.Notifier by logging each message.
type LogNotifier struct {
	logger *slog.Logger
	// revealLinks logs full links. Only for local development.
	revealLinks bool
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier returns a notifier writing to logger. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger, revealLinks bool) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier"), revealLinks: revealLinks}
}

// SendVerification logs the verification link for acct.
func (n *LogNotifier) SendVerification(ctx context.Context, acct domainauth.Account, link string) error {
	n.log(ctx, KindVerification, acct, link)
	return nil
}

// SendPasswordReset logs the password-reset link for acct.
func (n *LogNotifier) SendPasswordReset(ctx context.Context, acct domainauth.Account, link string) error {
	n.log(ctx, KindPasswordReset, acct, link)
	return nil
}

func (n *LogNotifier) log(ctx context.Context, kind string, acct domainauth.Account, link string) {
	attrs := []any{"kind", kind, "account_id", acct.ID, "email", acct.Email}
	if n.revealLinks {
		attrs = append(attrs, "link", link)
	} else {
		attrs = append(attrs, "link", redact(link))
	}
	n.logger.InfoContext(ctx, "auth message queued", attrs...)
}

// redact strips the query string so tokens never reach shared logs.
func redact(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[invalid link]"
	}
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	return u.String()
}
