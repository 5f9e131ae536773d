// Package notify delivers password reset emails over a configurable transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"password-reset/internal/config"

	"github.com/resend/resend-go/v2"
	"github.com/samber/oops"
)

var (
	// ErrMailerConfig is returned by New when the selected driver is missing settings.
	ErrMailerConfig = errors.New("mailer configuration incomplete")
	// ErrTransport wraps every delivery failure.
	ErrTransport = errors.New("mail transport failed")
)

// ResetSubject is the subject line of reset emails.
const ResetSubject = "Reset your password"

// ResetMailer turns a reset token into a link and emails it.
type ResetMailer struct {
	sender  Sender
	driver  string
	baseURL string
	ttl     time.Duration
}

// NewResetMailer builds a ResetMailer around an existing Sender. ttl is
// only quoted in the email body.
func NewResetMailer(sender Sender, driver, baseURL string, ttl time.Duration) *ResetMailer {
	return &ResetMailer{
		sender:  sender,
		driver:  driver,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
}

// New picks the transport named by cfg.MailDriver. It fails with
// ErrMailerConfig instead of deferring a broken setup to the first send.
func New(cfg config.Config, log *slog.Logger) (*ResetMailer, error) {
	if cfg.MailDriver == "" {
		return nil, fmt.Errorf("%w: missing MAIL_DRIVER (smtp, resend or log)", ErrMailerConfig)
	}
	if cfg.ResetBaseURL == "" {
		return nil, fmt.Errorf("%w: missing RESET_BASE_URL", ErrMailerConfig)
	}

	var sender Sender
	switch cfg.MailDriver {
	case config.MailDriverSMTP:
		if err := missingKeys(map[string]bool{
			"SMTP_HOST":     cfg.SMTPHost != "",
			"SMTP_PORT":     cfg.SMTPPort > 0,
			"SMTP_USERNAME": cfg.SMTPUsername != "",
			"SMTP_PASSWORD": cfg.SMTPPassword != "",
			"MAIL_FROM":     cfg.MailFrom != "",
		}); err != nil {
			return nil, err
		}
		sender = NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.SMTPTimeout(),
		})
	case config.MailDriverResend:
		if err := missingKeys(map[string]bool{
			"RESEND_API_KEY": cfg.ResendAPIKey != "",
			"MAIL_FROM":      cfg.MailFrom != "",
		}); err != nil {
			return nil, err
		}
		sender = NewResendSender(resend.NewClient(cfg.ResendAPIKey), cfg.MailFrom)
	case config.MailDriverLog:
		sender = NewLogSender(log)
	default:
		return nil, fmt.Errorf("%w: unknown MAIL_DRIVER %q", ErrMailerConfig, cfg.MailDriver)
	}

	log.Info("mailer ready", "driver", cfg.MailDriver)

	return NewResetMailer(sender, cfg.MailDriver, cfg.ResetBaseURL, cfg.ResetTokenTTL()), nil
}

// missingKeys reports every key in present that is false, in a fixed order.
func missingKeys(present map[string]bool) error {
	var missing []string
	for _, key := range []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "RESEND_API_KEY", "MAIL_FROM"} {
		if ok, checked := present[key]; checked && !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMailerConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ResetLink is the URL a user follows to choose a new password.
func (m *ResetMailer) ResetLink(token string) string {
	return m.baseURL + "/reset-password/" + url.PathEscape(token)
}

// SendResetEmail mails the reset link for token to email.
func (m *ResetMailer) SendResetEmail(ctx context.Context, email, token string) error {
	if err := m.sender.Send(ctx, email, ResetSubject, resetBody(m.ResetLink(token), m.ttl)); err != nil {
		return oops.In("notify").
			Code("MAIL_TRANSPORT").
			With("driver", m.driver).
			Wrap(err)
	}
	return nil
}

func resetBody(link string, ttl time.Duration) string {
	link = html.EscapeString(link)
	return `<html>
<body>
<h1>Password reset</h1>
<p>We received a request to reset the password for your account. Follow the link below to choose a new one:</p>
<p><a href="` + link + `">` + link + `</a></p>
<p>This link expires in ` + humanize(ttl) + ` and can be used once.</p>
<p>If you did not ask for this, you can ignore this email.</p>
</body>
</html>`
}

func humanize(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d > time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d == time.Minute:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
}
