package observability

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger satisfies the app.Logger interface consumed by the services.
type Logger struct {
	zl zerolog.Logger
}

func NewLogger() *Logger {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}
