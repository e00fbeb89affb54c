// Package mailer renders and delivers outgoing email.
package mailer

import (
	"context"
	"net/mail"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
)

// Message is a rendered email ready to send.
type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

// HasRecipients reports whether the message has anyone to go to.
func (m Message) HasRecipients() bool { return len(m.To) > 0 }

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender selected by MAIL_DRIVER.
func New(cfg *config.Config, log zerolog.Logger) Sender {
	if cfg.MailDriver == config.MailDriverSendGrid && cfg.SendGridAPIKey != "" {
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFromName, cfg.MailFrom)
	}
	if cfg.MailDriver == config.MailDriverSendGrid {
		log.Warn().Msg("SENDGRID_API_KEY is empty, falling back to log mail driver")
	}
	return NewLogSender(log)
}
