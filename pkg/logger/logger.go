// Package logger is the structured logging facade used across touchline. It
// wraps log/slog with context-first level methods and typed fields.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// frames between runtime.Caller and the logging call site: location, emit, level method
const callerDepth = 3

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	// Fatal logs at error level and exits the process.
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
	With(fields ...Field) Logger
}

// Field is one structured key-value pair.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}

type facade struct {
	sl     *slog.Logger
	caller bool
	root   string
}

func (f *facade) Named(name string) Logger {
	return &facade{sl: f.sl.With(slog.String("logger", name)), caller: f.caller, root: f.root}
}

func (f *facade) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, a := range attrs(fields) {
		args = append(args, a)
	}
	return &facade{sl: f.sl.With(args...), caller: f.caller, root: f.root}
}

func (f *facade) Info(ctx context.Context, msg string, fields ...Field) {
	f.emit(ctx, slog.LevelInfo, msg, fields)
}

func (f *facade) Error(ctx context.Context, msg string, fields ...Field) {
	f.emit(ctx, slog.LevelError, msg, fields)
}

func (f *facade) Debug(ctx context.Context, msg string, fields ...Field) {
	f.emit(ctx, slog.LevelDebug, msg, fields)
}

func (f *facade) Warn(ctx context.Context, msg string, fields ...Field) {
	f.emit(ctx, slog.LevelWarn, msg, fields)
}

func (f *facade) Fatal(ctx context.Context, msg string, fields ...Field) {
	f.emit(ctx, slog.LevelError, msg, fields)
	os.Exit(1)
}

func (f *facade) emit(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !f.sl.Enabled(ctx, level) {
		return
	}
	if f.caller {
		fields = append(fields, String("source", f.location()))
	}
	f.sl.LogAttrs(ctx, level, msg, attrs(fields)...)
}

// location renders the logging call site as path:line relative to the
// working directory captured at Init.
func (f *facade) location() string {
	_, file, line, ok := runtime.Caller(callerDepth)
	if !ok {
		return "unknown:0"
	}
	if f.root != "" {
		if rel, err := filepath.Rel(f.root, file); err == nil {
			file = rel
		}
	} else {
		file = filepath.Base(file)
	}
	return fmt.Sprintf("%s:%d", file, line)
}

var (
	mu       sync.RWMutex
	global   Logger
	levelVar slog.LevelVar
)

// Option configures Init.
type Option func(*options)

type options struct {
	out    io.Writer
	format string
	caller bool
}

// WithWriter sends log output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithFormat selects the handler: "text" (default) or "json".
func WithFormat(format string) Option {
	return func(o *options) { o.format = strings.ToLower(strings.TrimSpace(format)) }
}

// WithCaller toggles the source field. It is on by default.
func WithCaller(on bool) Option {
	return func(o *options) { o.caller = on }
}

// Init replaces the global logger. The level resets to info.
func Init(opts ...Option) error {
	o := options{out: os.Stdout, format: "text", caller: true}
	for _, opt := range opts {
		opt(&o)
	}

	ho := &slog.HandlerOptions{Level: &levelVar}
	var h slog.Handler
	switch o.format {
	case "", "text":
		h = slog.NewTextHandler(o.out, ho)
	case "json":
		h = slog.NewJSONHandler(o.out, ho)
	default:
		return fmt.Errorf("unknown log format: %s", o.format)
	}
	levelVar.Set(slog.LevelInfo)

	root, _ := os.Getwd()
	mu.Lock()
	global = &facade{sl: slog.New(h), caller: o.caller, root: root}
	mu.Unlock()
	return nil
}

// Get returns the global logger. It panics before Init.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named returns the global logger tagged with name.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries. slog writes through, so it is a no-op.
func Sync() error {
	return nil
}

// SetLevel updates the level of the global logger.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// ParseLevel maps debug, info, warn/warning and error (any case) onto slog
// levels. Blank input is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// SetLevelString parses level and applies it.
func SetLevelString(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetLevel(l)
	return nil
}
