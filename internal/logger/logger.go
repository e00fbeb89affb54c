package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output formats understood by Setup.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Setup configures zerolog globals and returns the root logger on stdout.
//   - level: trace, debug, info, warn, error, fatal or panic; anything else is info
//   - format: "pretty" for the console writer, otherwise JSON lines
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New builds the root logger on w.
func New(w io.Writer, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	if format == FormatPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log := zerolog.New(w).
		With().
		Timestamp().
		Str("service", "schoolhub").
		Logger()
	if lvl <= zerolog.DebugLevel {
		log = log.With().Caller().Logger()
	}
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
	}
	return log
}
