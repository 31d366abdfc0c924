package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Unknown levels fall back to info.
func Setup(level string) {
	SetupWriter(os.Stderr, level)
}

// SetupWriter is Setup with an explicit console destination.
func SetupWriter(w io.Writer, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// LogRequest logs an outgoing request. path must not carry credentials.
func LogRequest(provider, method, path string) {
	log.Debug().
		Str("provider", provider).
		Str("method", method).
		Str("path", path).
		Msg("request")
}

// LogResponse logs a response received from a remote service.
func LogResponse(provider, method, path string, statusCode int, duration time.Duration) {
	log.Debug().
		Str("provider", provider).
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration", duration).
		Msg("response")
}

// LogEnrich logs a batch of secondary lookups.
func LogEnrich(provider, operation string, count int, duration time.Duration) {
	log.Debug().
		Str("provider", provider).
		Str("operation", operation).
		Int("items", count).
		Dur("duration", duration).
		Msg("enriched")
}

// LogError logs a failed operation.
func LogError(provider, operation string, err error) {
	log.Error().
		Err(err).
		Str("provider", provider).
		Str("operation", operation).
		Msg("operation failed")
}

// LogWarn logs a degraded but successful operation.
func LogWarn(provider, operation string, err error) {
	log.Warn().
		Err(err).
		Str("provider", provider).
		Str("operation", operation).
		Msg("degraded")
}
