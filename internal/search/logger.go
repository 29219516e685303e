package search

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

const (
	maxLogSize      = 10 * 1024 * 1024 // 10MB
	logBufferSize   = 32 * 1024        // 32KB
	maxLogRotations = 5
	logFileName     = "neutrino.log"
)

// LogOptions configures the package logger.
type LogOptions struct {
	Dir   string // defaults to <tmp>/neutrino-logs
	Level LogLevel
	JSON  bool
}

// ParseLogLevel maps debug, info, warn and error to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARNING:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type Logger struct {
	mu     sync.Mutex
	writer *bufio.Writer
	file   *os.File
	slog   *slog.Logger
}

// Write serializes record output from concurrent handlers into the buffer.
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return len(p), nil
	}
	return l.writer.Write(p)
}

// globalLogger is nil until InitLogger succeeds; records are dropped until then.
var globalLogger atomic.Pointer[Logger]

// InitLogger opens the log file, rotating it first when it grew past
// maxLogSize, and routes all package logging to it.
func InitLogger(opts LogOptions) error {
	logDir := opts.Dir
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), "neutrino-logs")
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, logFileName)
	rotateLogFile(logPath)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		writer: bufio.NewWriterSize(file, logBufferSize),
		file:   file,
	}
	l.slog = slog.New(newHandler(l, opts))

	if prev := globalLogger.Swap(l); prev != nil {
		_ = prev.Close()
	}
	l.slog.Info("log started", "time", time.Now().Format("2006-01-02 15:04:05"))
	return nil
}

// SetLogOutput routes logging to w without a log file. Used by tests and
// embedding programs.
func SetLogOutput(w io.Writer, opts LogOptions) {
	l := &Logger{writer: bufio.NewWriterSize(w, logBufferSize)}
	l.slog = slog.New(newHandler(l, opts))
	if prev := globalLogger.Swap(l); prev != nil {
		_ = prev.Close()
	}
}

func newHandler(w io.Writer, opts LogOptions) slog.Handler {
	ho := &slog.HandlerOptions{Level: opts.Level.slogLevel()}
	if opts.JSON {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// rotateLogFile rotates log files if necessary
func rotateLogFile(logPath string) {
	if fi, err := os.Stat(logPath); err == nil {
		if fi.Size() > maxLogSize {
			for i := maxLogRotations - 1; i > 0; i-- {
				oldPath := fmt.Sprintf("%s.%d", logPath, i)
				newPath := fmt.Sprintf("%s.%d", logPath, i+1)
				os.Rename(oldPath, newPath)
			}
			os.Rename(logPath, logPath+".1")
		}
	}
}

// Flush writes buffered records without closing the logger.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		return l.writer.Flush()
	}
	return nil
}

// Close closes the logger and flushes any pending writes
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer != nil {
		if err := l.writer.Flush(); err != nil {
			return fmt.Errorf("failed to flush log buffer: %w", err)
		}
		l.writer = nil
	}

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.file = nil
	}

	return nil
}

// CloseLogger flushes and detaches the package logger.
func CloseLogger() error {
	if l := globalLogger.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}

func logf(level slog.Level, format string, args ...interface{}) {
	l := globalLogger.Load()
	if l == nil {
		return
	}
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, fmt.Sprintf(format, args...))
}

func logAttrs(level slog.Level, msg string, attrs ...slog.Attr) {
	l := globalLogger.Load()
	if l == nil {
		return
	}
	l.slog.LogAttrs(context.Background(), level, msg, attrs...)
}

func LogDebug(format string, args ...interface{}) {
	logf(slog.LevelDebug, format, args...)
}

func LogInfo(format string, args ...interface{}) {
	logf(slog.LevelInfo, format, args...)
}

func LogWarning(format string, args ...interface{}) {
	logf(slog.LevelWarn, format, args...)
}

func LogError(format string, args ...interface{}) {
	logf(slog.LevelError, format, args...)
}
