package di

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// In Lambda (when AWS_LAMBDA_RUNTIME_API is set), it writes JSON so CloudWatch can
// index the fields; in a terminal it uses the console writer. LOG_LEVEL overrides
// the default info level.
func ProvideLogger() zerolog.Logger {
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		w = os.Stdout
	}

	return zerolog.New(w).
		Level(logLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Logger()
}

func logLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
