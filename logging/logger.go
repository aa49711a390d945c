package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Fields map[string]interface{}

// Logger is the structured logger used across fileconn packages.
type Logger interface {
	WithContext(ctx context.Context) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	Trace(args ...interface{})
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	IsTracing() bool
}

type logrusEntryWrapper struct {
	e *logrus.Entry
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

var defaultLogger = logrus.New()

func init() {
	defaultLogger.SetOutput(os.Stderr)
	defaultLogger.SetLevel(logrus.InfoLevel)
}

// SetLevel sets the level of the default logger. Unknown levels are ignored.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		defaultLogger.WithField("level", level).Warn("unknown log level, keeping current")
		return
	}
	defaultLogger.SetLevel(parsed)
}

func SetOutputFormat(format string) {
	switch strings.ToLower(format) {
	case FormatJSON:
		defaultLogger.SetFormatter(&logrus.JSONFormatter{})
	default:
		defaultLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func Default() Logger {
	return &logrusEntryWrapper{e: logrus.NewEntry(defaultLogger)}
}

// Dummy returns a logger that discards everything, for tests and embedding.
func Dummy() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusEntryWrapper{e: logrus.NewEntry(l)}
}

func (l *logrusEntryWrapper) WithContext(ctx context.Context) Logger {
	return &logrusEntryWrapper{e: l.e.WithContext(ctx)}
}

func (l *logrusEntryWrapper) WithField(key string, value interface{}) Logger {
	return &logrusEntryWrapper{e: l.e.WithField(key, value)}
}

func (l *logrusEntryWrapper) WithFields(fields Fields) Logger {
	return &logrusEntryWrapper{e: l.e.WithFields(logrus.Fields(fields))}
}

func (l *logrusEntryWrapper) WithError(err error) Logger {
	return &logrusEntryWrapper{e: l.e.WithError(err)}
}

func (l *logrusEntryWrapper) Trace(args ...interface{}) { l.e.Trace(args...) }
func (l *logrusEntryWrapper) Debug(args ...interface{}) { l.e.Debug(args...) }
func (l *logrusEntryWrapper) Info(args ...interface{})  { l.e.Info(args...) }
func (l *logrusEntryWrapper) Warn(args ...interface{})  { l.e.Warn(args...) }
func (l *logrusEntryWrapper) Error(args ...interface{}) { l.e.Error(args...) }

func (l *logrusEntryWrapper) Tracef(format string, args ...interface{}) { l.e.Tracef(format, args...) }
func (l *logrusEntryWrapper) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l *logrusEntryWrapper) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l *logrusEntryWrapper) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l *logrusEntryWrapper) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }

func (l *logrusEntryWrapper) IsTracing() bool {
	return l.e.Logger.IsLevelEnabled(logrus.TraceLevel)
}
