// Package logging configures the slog logger shared by scanviz components.
// Every component logs through a child of the default logger tagged with its
// name, and playback logs carry the session they belong to.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const (
	logDirPerm  = 0750
	logFilePerm = 0600

	redactedValue = "********"
)

// LogLevel names a minimum log level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat names a handler format.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds logging configuration.
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"`
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig logs text at info level to stderr, leaving stdout to the
// terminal renderer.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: "stderr",
	}
}

// ParseLevel accepts a level name in any case.
func ParseLevel(raw string) (LogLevel, error) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(raw))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", raw)
	}
}

// ParseFormat accepts a format name in any case.
func ParseFormat(raw string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", raw)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to cfg.Output: stdout, stderr or a file path,
// whose directory is created if needed.
func New(cfg Config) (*slog.Logger, error) {
	var w io.Writer
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Output), logDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
	}
	return NewWithWriter(cfg, w), nil
}

// NewWithWriter builds a logger writing to w regardless of cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       cfg.Level.slogLevel(),
		AddSource:   cfg.AddSource,
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// secretKeys are attribute names whose values never reach the log.
var secretKeys = []string{"password", "secret", "api_key", "key_hash", "token"}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(NewWithWriter(DefaultConfig(), os.Stderr))
}

// SetDefault replaces the logger returned by Default and Component.
func SetDefault(l *slog.Logger) {
	if l == nil {
		l = NewWithWriter(DefaultConfig(), os.Stderr)
	}
	defaultLogger.Store(l)
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// Component returns a child of the default logger tagged with name.
// Components call it once, at construction.
func Component(name string) *slog.Logger {
	return Default().With("component", name)
}

// Session tags l with a playback session and the scan it plays.
func Session(l *slog.Logger, id, scanType string) *slog.Logger {
	return l.With("session_id", id, "scan_type", scanType)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Info logs at info level using the default logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs at error level using the default logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }
