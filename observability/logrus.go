package observability

import "github.com/sirupsen/logrus"

// NewLogrus adapts a logrus logger to Logger. A nil logger uses
// logrus.StandardLogger.
func NewLogrus(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{entry: logrus.NewEntry(l)}
}

type logrusLogger struct{ entry *logrus.Entry }

func (l logrusLogger) Debug(msg string, fields ...Field) { l.with(fields).Debug(msg) }
func (l logrusLogger) Info(msg string, fields ...Field)  { l.with(fields).Info(msg) }
func (l logrusLogger) Warn(msg string, fields ...Field)  { l.with(fields).Warn(msg) }
func (l logrusLogger) Error(msg string, fields ...Field) { l.with(fields).Error(msg) }

func (l logrusLogger) With(fields ...Field) Logger {
	return logrusLogger{entry: l.with(fields)}
}

func (l logrusLogger) with(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key()] = f.Value()
	}
	return l.entry.WithFields(lf)
}
