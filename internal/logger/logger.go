package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger based on the ENV environment variable: human-readable
// console output during development, JSON with UNIX timestamps otherwise.
func New() zerolog.Logger {
	switch os.Getenv("ENV") {
	case "", "dev", "development":
		return NewDevelopment()
	default:
		return NewProduction()
	}
}

// NewDevelopment creates a colorized console logger.
func NewDevelopment() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewProduction creates a JSON logger.
func NewProduction() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
