package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "log_mailer").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = addr.String()
	}
	s.log.Info().
		Strs("to", to).
		Str("subject", msg.Subject).
		Str("body", msg.TextContent).
		Msg("email")
	return nil
}
