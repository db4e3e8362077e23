// Package mailer delivers account notices. Delivery is always best effort;
// callers log failures and carry on.
package mailer

import (
	"context"
	"fmt"

	"github.com/mateuscastro5/gym-api/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New returns an SMTP sender when cfg is complete, otherwise a sender that
// only logs what would have been delivered.
func New(cfg config.MailConfig, log logrus.FieldLogger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	log.Warn("mail not configured, deliveries will only be logged")
	return NewLogSender(log)
}

// SMTPSender sends through an authenticated SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender simulates delivery by logging the message.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("mail delivery simulated")
	return nil
}
