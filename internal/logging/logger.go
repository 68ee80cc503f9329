// Package logging provides the structured logger used across forge.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level mirrors slog's severities without exposing slog as part of the
// package's public API surface.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Config controls how a Logger writes.
type Config struct {
	Level      Level
	OutputFile string // path to a log file; empty means stdout only
	MaxSize    int64  // bytes before rotation, default 10MB
	MaxBackups int    // rotated files to retain, default 3
	JSONFormat bool   // JSON lines vs human-readable text
	AddSource  bool   // include file:line in each record
}

// Logger wraps slog.Logger with file rotation and a package-level default.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Initialize installs the process-wide default logger. Safe to call once;
// subsequent calls are no-ops.
func Initialize(config Config) error {
	var initErr error
	once.Do(func() {
		l, err := New(config)
		if err != nil {
			initErr = fmt.Errorf("initialize logger: %w", err)
			return
		}
		defaultLogger = l
	})
	return initErr
}

// New builds a standalone Logger instance.
func New(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 10 * 1024 * 1024
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}

	l := &Logger{config: config}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if config.OutputFile != "" {
		dir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("rotate logs: %w", err)
		}
		f, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", config.OutputFile, err)
		}
		l.file = f
		writers = append(writers, f)
	}

	multi := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{Level: toSlogLevel(config.Level), AddSource: config.AddSource}

	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(multi, opts)
	} else {
		handler = slog.NewTextHandler(multi, opts)
	}

	l.slog = slog.New(handler)
	return l, nil
}

func (l *Logger) rotateIfNeeded() error {
	if l.config.OutputFile == "" {
		return nil
	}
	info, err := os.Stat(l.config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < l.config.MaxSize {
		return nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		old := fmt.Sprintf("%s.%d", l.config.OutputFile, i)
		next := fmt.Sprintf("%s.%d", l.config.OutputFile, i+1)
		if _, err := os.Stat(old); err == nil {
			os.Rename(old, next)
		}
	}
	backup := l.config.OutputFile + ".1"
	return os.Rename(l.config.OutputFile, backup)
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying the given key/value pairs on every
// subsequent record.
func (l *Logger) With(args ...any) *Logger {
	child := *l
	child.slog = l.slog.With(args...)
	return &child
}

// Close releases the rotated log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Debug logs through the default logger, falling back to slog's own default
// handler if Initialize was never called (useful in tests).
func Debug(msg string, args ...any) { dispatch(DEBUG, msg, args...) }
func Info(msg string, args ...any)  { dispatch(INFO, msg, args...) }
func Warn(msg string, args ...any)  { dispatch(WARN, msg, args...) }
func Error(msg string, args ...any) { dispatch(ERROR, msg, args...) }

func dispatch(level Level, msg string, args ...any) {
	if defaultLogger != nil {
		switch level {
		case DEBUG:
			defaultLogger.Debug(msg, args...)
		case WARN:
			defaultLogger.Warn(msg, args...)
		case ERROR:
			defaultLogger.Error(msg, args...)
		default:
			defaultLogger.Info(msg, args...)
		}
		return
	}
	switch level {
	case DEBUG:
		slog.Debug(msg, args...)
	case WARN:
		slog.Warn(msg, args...)
	case ERROR:
		slog.Error(msg, args...)
	default:
		slog.Info(msg, args...)
	}
}

// With returns a child of the default logger, or nil if none is installed.
func With(args ...any) *Logger {
	if defaultLogger != nil {
		return defaultLogger.With(args...)
	}
	return nil
}

// Close releases the default logger's file handle.
func Close() error {
	if defaultLogger != nil {
		return defaultLogger.Close()
	}
	return nil
}

// DefaultConfig returns sensible defaults: stdout plus a timestamped log
// file in both modes, JSON in production and human-readable text with
// source locations in debug mode. DebugConfig is the stdout-only variant.
func DefaultConfig(debug bool) Config {
	level := INFO
	if debug {
		level = DEBUG
	}
	logFile := filepath.Join("logs", fmt.Sprintf("forge_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	return Config{
		Level:      level,
		OutputFile: logFile,
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 3,
		JSONFormat: !debug,
		AddSource:  debug,
	}
}

// DebugConfig is stdout-only, human-readable, with source locations.
func DebugConfig() Config {
	return Config{Level: DEBUG, JSONFormat: false, AddSource: true}
}
