// Package logger provides the per-subsystem file loggers used across EOSS.
//
// Each subsystem (server, metadata client, object coordinator) writes to its
// own log file under the configured logging directory, with size-based
// rotation. Loggers are built on log/slog with a text handler; the access
// logger is separate because access lines follow a fixed bare format rather
// than structured key/value output.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the settings shared by all file loggers.
type Config struct {
	// Dir is the directory log files are created in.
	Dir string

	// Level is the minimum level to output: DEBUG, INFO, WARN or ERROR.
	Level string

	// MaxBytes is the rotation threshold for a single log file.
	MaxBytes int64

	// BackupCount is the number of rotated files to keep.
	BackupCount int
}

// Logger is a named logger writing structured text lines to a rotating file.
type Logger struct {
	name string
	s    *slog.Logger
	w    io.WriteCloser
}

// New creates a logger named name writing to <dir>/<name>.log.
func New(name string, cfg Config) *Logger {
	w := newRotatingWriter(filepath.Join(cfg.Dir, name+".log"), cfg)

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	return &Logger{
		name: name,
		s:    slog.New(slog.NewTextHandler(w, opts)),
		w:    w,
	}
}

// NewWithWriter creates a logger writing to an arbitrary writer. Intended
// for tests.
func NewWithWriter(name string, w io.Writer, level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	return &Logger{
		name: name,
		s:    slog.New(slog.NewTextHandler(w, opts)),
	}
}

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, args ...any) {
	l.s.Debug(msg, args...)
}

// Info logs at info level with structured fields.
func (l *Logger) Info(msg string, args ...any) {
	l.s.Info(msg, args...)
}

// Warn logs at warn level with structured fields.
func (l *Logger) Warn(msg string, args ...any) {
	l.s.Warn(msg, args...)
}

// Error logs at error level with structured fields.
func (l *Logger) Error(msg string, args ...any) {
	l.s.Error(msg, args...)
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.w == nil {
		return nil
	}
	return l.w.Close()
}

// AccessLogger writes one bare line per served request:
//
//	<req-id> <latency-ms> <client-ip> <method> <path> <status> <user-agent>
type AccessLogger struct {
	w io.Writer
	c io.Closer
}

// NewAccess creates the access logger writing to <dir>/access.log.
func NewAccess(cfg Config) *AccessLogger {
	w := newRotatingWriter(filepath.Join(cfg.Dir, "access.log"), cfg)
	return &AccessLogger{w: w, c: w}
}

// NewAccessWithWriter creates an access logger writing to an arbitrary
// writer. Intended for tests.
func NewAccessWithWriter(w io.Writer) *AccessLogger {
	return &AccessLogger{w: w}
}

// Log writes a single access line.
func (a *AccessLogger) Log(requestID string, latencyMS int64, clientIP, method, path string, status int, userAgent string) {
	fmt.Fprintf(a.w, "%s %d %s %s %s %d %s\n",
		requestID, latencyMS, clientIP, method, path, status, userAgent)
}

// Close releases the underlying file, if any.
func (a *AccessLogger) Close() error {
	if a.c == nil {
		return nil
	}
	return a.c.Close()
}

func newRotatingWriter(path string, cfg Config) io.WriteCloser {
	maxMB := int(cfg.MaxBytes / (1024 * 1024))
	if maxMB < 1 {
		maxMB = 1
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: cfg.BackupCount,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
