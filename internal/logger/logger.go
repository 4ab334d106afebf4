package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger represents application logger.
type Logger struct {
	zerolog.Logger
}

// New creates new Logger instance with the specified level. Negative levels
// enable the console writer meant for local development.
func New(level int) *Logger {
	out := io.Writer(os.Stdout)
	if level < 0 {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	zl := zerolog.New(out).Level(zerolog.Level(level)).With().Timestamp().Logger()
	return &Logger{Logger: zl}
}

// Noop returns a logger that discards everything. Used in tests.
func Noop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}
