// Package logging builds the logrus loggers used across forgeops and emits
// named structured events.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EventKey is the field that carries the event name in JSON output.
const EventKey = "event"

// Options controls logger construction.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New creates a logger with the redaction hook installed.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{logrus.FieldKeyMsg: EventKey},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	log.AddHook(&RedactHook{})
	return log, nil
}

// Discard returns a logger that writes nowhere, for tests and library callers
// that do not care about events.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Event emits a named event with its payload at the given level.
func Event(log logrus.FieldLogger, name string, fields logrus.Fields, level logrus.Level) {
	entry := log.WithFields(fields)
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		entry.Debug(name)
	case logrus.WarnLevel:
		entry.Warn(name)
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		entry.Error(name)
	default:
		entry.Info(name)
	}
}
