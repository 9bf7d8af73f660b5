// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"kfarm/internal/config"
	"kfarm/internal/observability"
)

// Mailer delivers a single message. Sends are synchronous so callers can
// report delivery failures to the client.
type Mailer interface {
	Send(ctx context.Context, kind, to, subject, body string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer builds a mailer from configuration.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.SMTPPort == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}

	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
	}, nil
}

// Send delivers one message. kind labels the mail for metrics
// ("password_reset", "contact").
func (m *SMTPMailer) Send(ctx context.Context, kind, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		observability.MailSends.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("smtp send failed: %w", err)
	}

	observability.MailSends.WithLabelValues(kind, "success").Inc()
	return nil
}
