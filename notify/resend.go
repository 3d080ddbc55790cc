package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Mailer delivers signup events as transactional email through Resend.
// Lifecycle events without an email recipient fall through to the log.
type Mailer struct {
	client  *resend.Client
	from    string
	adminTo string
	replyTo string
}

// MailerConfig holds configuration for the Resend mailer.
type MailerConfig struct {
	APIKey  string
	From    string
	AdminTo string
	ReplyTo string
}

// NewMailer creates a Resend-backed notifier.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		client:  resend.NewClient(cfg.APIKey),
		from:    cfg.From,
		adminTo: cfg.AdminTo,
		replyTo: cfg.ReplyTo,
	}
}

// Notify delivers the event. Unknown or recipient-less events are
// handled by the log fallback rather than treated as errors.
func (m *Mailer) Notify(ctx context.Context, event Event) error {
	switch event.Type {
	case EventWaitlistSignup:
		subject, html := waitlistWelcome(event.Payload["name"])
		return m.send(ctx, event.Payload["email"], subject, html)

	case EventLabRequest:
		subject, html := labRequestConfirmation(event.Payload["name"], event.Payload["org"])
		if err := m.send(ctx, event.Payload["email"], subject, html); err != nil {
			return err
		}
		if m.adminTo == "" {
			return nil
		}
		adminSubject, adminHTML := labRequestAdminNotification(event.Payload)
		return m.send(ctx, m.adminTo, adminSubject, adminHTML)

	default:
		return LogNotifier{}.Notify(ctx, event)
	}
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if m.replyTo != "" {
		params.ReplyTo = m.replyTo
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send to %s: %w", to, err)
	}
	return nil
}
