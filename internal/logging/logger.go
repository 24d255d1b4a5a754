package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the file NewLogger creates inside its directory.
const LogFileName = "agentboard.log"

var slogLevels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// sink is the closable end of a Logger. Children share their parent's sink.
type sink struct {
	mu  sync.Mutex
	out interface {
		Sync() error
		Close() error
	}
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	out := s.out
	s.out = nil
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Logger writes JSON lines through log/slog. A nil *Logger discards
// everything, so optional loggers need no guard at call sites.
type Logger struct {
	slog *slog.Logger
	sink *sink
}

// NewLogger appends to {dir}/agentboard.log, creating dir if needed. An
// empty dir logs to stderr. Unknown levels fall back to INFO.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return build(os.Stderr, nil, level), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return build(f, f, level), nil
}

// NewLoggerWithRotation is NewLogger with output going through a
// RotatingWriter.
func NewLoggerWithRotation(dir string, level string, config RotationConfig) (*Logger, error) {
	if dir == "" {
		return build(os.Stderr, nil, level), nil
	}
	rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), config)
	if err != nil {
		return nil, err
	}
	return build(rw, rw, level), nil
}

func build(w io.Writer, out interface {
	Sync() error
	Close() error
}, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevels[ParseLevel(level)]})
	return &Logger{slog: slog.New(h), sink: &sink{out: out}}
}

// NopLogger discards all output.
func NopLogger() *Logger {
	return &Logger{slog: slog.New(slog.DiscardHandler), sink: &sink{}}
}

func (l *Logger) WithSource(source string) *Logger     { return l.With("source", source) }
func (l *Logger) WithWorkspace(key string) *Logger     { return l.With("workspace", key) }
func (l *Logger) WithSession(sessionID string) *Logger { return l.With("session_id", sessionID) }

// With returns a child carrying extra key/value attributes. Pairs whose key
// is not a string are dropped.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || len(args) == 0 {
		return l
	}
	kept := make([]any, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		if _, ok := args[i].(string); ok {
			kept = append(kept, args[i], args[i+1])
		}
	}
	return &Logger{slog: l.slog.With(kept...), sink: l.sink}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil {
		return
	}
	l.slog.Log(context.Background(), level, msg, args...)
}

// Close syncs and closes the underlying file. It is shared by every child
// logger and safe to call more than once.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.close()
}

// ParseLevel normalizes level to one of the Level constants, defaulting to
// LevelInfo.
func ParseLevel(level string) string {
	up := strings.ToUpper(strings.TrimSpace(level))
	if slices.Contains(ValidLevels(), up) {
		return up
	}
	return LevelInfo
}

func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
