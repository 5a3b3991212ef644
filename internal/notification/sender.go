package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"ecommerce-backend/internal/config"
)

// Sender delivers a single HTML message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type smtpSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) (Sender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("notification: failed to create smtp client: %w", err)
	}

	return &smtpSender{client: client, from: cfg.From}, nil
}

func (s *smtpSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("notification: invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notification: invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notification: failed to send mail to %s: %w", to, err)
	}

	log.Debug().Str("to", to).Str("subject", subject).Msg("notification: mail sent")

	return nil
}

// NopSender discards every message. Used when SMTP is not configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	log.Debug().Str("to", to).Str("subject", subject).Msg("notification: smtp disabled, message dropped")
	return nil
}
