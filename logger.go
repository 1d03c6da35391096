package jwtguard

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// badKey names a value whose key is missing, as log/slog does.
const badKey = "!BADKEY"

// NewLogrusLogger returns a Logger writing to l. Key/value args become
// logrus fields.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) {
	a.l.WithFields(toFields(args)).Debug(msg)
}

func (a *logrusLoggerAdapter) Info(msg string, args ...any) {
	a.l.WithFields(toFields(args)).Info(msg)
}

func (a *logrusLoggerAdapter) Warn(msg string, args ...any) {
	a.l.WithFields(toFields(args)).Warn(msg)
}

func (a *logrusLoggerAdapter) Error(msg string, args ...any) {
	a.l.WithFields(toFields(args)).Error(msg)
}

func toFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 == len(args) {
			fields[badKey] = args[i]
			i--
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}

// NewZerologLogger returns a Logger writing to l.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLoggerAdapter{l}
}

type zerologLoggerAdapter struct{ l zerolog.Logger }

func (a *zerologLoggerAdapter) Debug(msg string, args ...any) {
	withArgs(a.l.Debug(), args).Msg(msg)
}

func (a *zerologLoggerAdapter) Info(msg string, args ...any) {
	withArgs(a.l.Info(), args).Msg(msg)
}

func (a *zerologLoggerAdapter) Warn(msg string, args ...any) {
	withArgs(a.l.Warn(), args).Msg(msg)
}

func (a *zerologLoggerAdapter) Error(msg string, args ...any) {
	withArgs(a.l.Error(), args).Msg(msg)
}

func withArgs(e *zerolog.Event, args []any) *zerolog.Event {
	for key, value := range toFields(args) {
		switch v := value.(type) {
		case error:
			e = e.AnErr(key, v)
		case fmt.Stringer:
			e = e.Stringer(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
