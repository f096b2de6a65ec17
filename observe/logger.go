package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel orders log severities; entries below a logger's level are dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLogLevel maps a level name to a LogLevel. Unknown names mean info.
func ParseLogLevel(s string) LogLevel {
	for lvl, name := range levelNames {
		if name == s {
			return LogLevel(lvl)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

// jsonLogger writes one JSON object per line. Loggers derived with With
// share the parent's sink.
type jsonLogger struct {
	min    LogLevel
	sink   *sink
	fields []Field
}

type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(line)
}

// NewLogger creates a JSON logger on stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger on w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{min: ParseLogLevel(level), sink: &sink{w: w}}
}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger {
	return noopLogger{}
}

// With returns a logger tagging every entry with the operation's op,
// entity, and, when set, path and alias.
func (l *jsonLogger) With(meta OpMeta) Logger {
	fields := make([]Field, 0, len(l.fields)+4)
	fields = append(fields, l.fields...)
	fields = append(fields,
		Field{Key: "stats.op", Value: meta.Op},
		Field{Key: "stats.entity", Value: meta.Entity},
	)
	if meta.Path != "" {
		fields = append(fields, Field{Key: "stats.path", Value: meta.Path})
	}
	if meta.Alias != "" {
		fields = append(fields, Field{Key: "stats.alias", Value: meta.Alias})
	}
	return &jsonLogger{min: l.min, sink: l.sink, fields: fields}
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *jsonLogger) emit(level LogLevel, msg string, extra []Field) {
	if level < l.min {
		return
	}

	entry := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"msg":       msg,
	}
	for _, f := range l.fields {
		entry[f.Key] = f.Value
	}
	for _, f := range extra {
		entry[f.Key] = f.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.sink.write(append(line, '\n'))
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...Field) {}
func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (n noopLogger) With(OpMeta) Logger                    { return n }

var (
	_ Logger = (*jsonLogger)(nil)
	_ Logger = noopLogger{}
)
