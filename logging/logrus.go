package logging

import (
	"context"
	"maps"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to the Logger interface. It is the
// implementation the CLI installs so library logs share the application's
// formatter and output.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps an existing logrus logger
func NewLogrusLogger(base *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

func mergeFields(fields []Fields) logrus.Fields {
	out := make(logrus.Fields)
	for _, f := range fields {
		maps.Copy(out, f)
	}
	return out
}

func (l *LogrusLogger) Debug(msg string, fields ...Fields) {
	l.entry.WithFields(mergeFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Fields) {
	l.entry.WithFields(mergeFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Fields) {
	l.entry.WithFields(mergeFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(err error, msg string, fields ...Fields) {
	l.entry.WithFields(mergeFields(fields)).WithError(err).Error(msg)
}

func (l *LogrusLogger) Fatal(err error, msg string, fields ...Fields) {
	l.entry.WithFields(mergeFields(fields)).WithError(err).Fatal(msg)
}

func (l *LogrusLogger) WithFields(fields Fields) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := ctx.Value(fieldsContextKey{}).(Fields); ok {
		return l.WithFields(fields)
	}
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) SetLevel(level Level) {
	switch level {
	case DebugLevel:
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	case InfoLevel:
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	case WarnLevel:
		l.entry.Logger.SetLevel(logrus.WarnLevel)
	case ErrorLevel:
		l.entry.Logger.SetLevel(logrus.ErrorLevel)
	case FatalLevel:
		l.entry.Logger.SetLevel(logrus.FatalLevel)
	}
}
