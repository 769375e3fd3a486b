package observability

import (
	"context"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type durationField struct {
	key string
	val time.Duration
}

func (f durationField) Key() string        { return f.key }
func (f durationField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field                 { return stringField{key, value} }
func Int(key string, value int) Field                { return intField{key, value} }
func Float64(key string, value float64) Field        { return float64Field{key, value} }
func Duration(key string, value time.Duration) Field { return durationField{key, value} }
func Error(key string, err error) Field              { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks around document and page operations.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// LogTracer reports every finished span as a debug line on a Logger.
func LogTracer(l Logger) Tracer { return logTracer{l: l} }

type logTracer struct{ l Logger }

func (t logTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{l: t.l, name: name, start: time.Now()}
}

type logSpan struct {
	l      Logger
	name   string
	start  time.Time
	fields []Field
	err    error
}

func (s *logSpan) SetTag(key string, value interface{}) {
	s.fields = append(s.fields, anyField{key, value})
}

func (s *logSpan) SetError(err error) { s.err = err }

func (s *logSpan) Finish() {
	fields := append(s.fields, String("span", s.name), Duration("duration", time.Since(s.start)))
	if s.err != nil {
		fields = append(fields, Error("error", s.err))
	}
	s.l.Debug("span finished", fields...)
}

type anyField struct {
	key string
	val interface{}
}

func (f anyField) Key() string        { return f.key }
func (f anyField) Value() interface{} { return f.val }

// Span names emitted by the cropper.
const (
	SpanCropFile = "pdfcrop.file"
	SpanCropPage = "pdfcrop.page"
	SpanSave     = "pdfcrop.save"
)
