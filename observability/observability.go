// Package observability defines the logging hooks used by the layout
// pipeline. Library code only talks to the Logger interface; binaries choose
// the implementation.
package observability

import (
	"fmt"
	"log"
	"strings"
)

// Logger receives structured log messages. With returns a Logger that adds
// fields to every later message.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one key/value pair attached to a log message.
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

type floatField struct {
	key string
	val float64
}

func (f floatField) Key() string        { return f.key }
func (f floatField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

// String returns a string field.
func String(key, value string) Field { return stringField{key, value} }

// Int returns an integer field.
func Int(key string, value int) Field { return intField{key, value} }

// Float returns a float field.
func Float(key string, value float64) Field { return floatField{key, value} }

// Error returns a field holding err; it prints as err.Error().
func Error(key string, err error) Field { return errorField{key, err} }

// NopLogger discards everything. It is the default when no logger is set.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Level orders log severities for StdLogger filtering.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// StdLogger writes key=value lines through a standard library logger.
type StdLogger struct {
	out    *log.Logger
	min    Level
	fields []Field
}

// NewStdLogger returns a logger that drops messages below min.
func NewStdLogger(out *log.Logger, min Level) *StdLogger {
	return &StdLogger{out: out, min: min}
}

func (l *StdLogger) Debug(msg string, fields ...Field) { l.emit(LevelDebug, msg, fields) }
func (l *StdLogger) Info(msg string, fields ...Field)  { l.emit(LevelInfo, msg, fields) }
func (l *StdLogger) Warn(msg string, fields ...Field)  { l.emit(LevelWarn, msg, fields) }
func (l *StdLogger) Error(msg string, fields ...Field) { l.emit(LevelError, msg, fields) }

func (l *StdLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &StdLogger{out: l.out, min: l.min, fields: merged}
}

func (l *StdLogger) emit(level Level, msg string, fields []Field) {
	if l == nil || l.out == nil || level < l.min {
		return
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)
	for _, f := range l.fields {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	l.out.Print(b.String())
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
