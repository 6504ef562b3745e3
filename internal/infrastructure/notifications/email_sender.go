package notifications

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
	"github.com/luluspa/spa-booking-backend/pkg/config"
)

// SMTPSender sends mail over SMTP
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTP mail sender
func NewSMTPSender(cfg *config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host must be set")
	}

	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send sends an HTML email
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// NoopSender discards mail. Used when SMTP is disabled.
type NoopSender struct{}

// NewNoopSender creates a mail sender that drops everything
func NewNoopSender() providers.Mailer {
	return NoopSender{}
}

// Send discards the message
func (NoopSender) Send(ctx context.Context, to, subject, body string) error {
	return nil
}
