package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

type colorLogger struct {
	zl zerolog.Logger
}

// NewColorLogger returns a Logger that writes colorized, labelled lines to w.
func NewColorLogger(label string, w io.Writer) Logger {
	labelToUse := label
	if len(labelToUse) < 6 {
		labelToUse = fmt.Sprintf("%-6s", labelToUse)
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    w != os.Stderr && w != os.Stdout,
	}
	zl := zerolog.New(console).With().Timestamp().Str("component", labelToUse).Logger()
	return &colorLogger{zl: zl}
}

func (l *colorLogger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *colorLogger) Infof(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *colorLogger) Warningf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *colorLogger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *colorLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.zl.Error().Msg(msg)
	panic(msg)
}

// SetVerbosity maps a -v count onto the global level:
// 0 warn, 1 info, 2 debug, 3+ trace.
func SetVerbosity(verbosity int) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

var Log Logger = NewColorLogger("stylepipe", os.Stderr)
