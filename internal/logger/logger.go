// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L *slog.Logger = slog.New(slog.DiscardHandler)

// file is the log file behind L, if any. It is closed when L is replaced.
var file *os.File

const (
	logPrefix     = "mmusim-"
	logSuffix     = ".log"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Console io.Writer  // If set, log as text to this writer instead of a file
	File    string     // Explicit log file. Default: daily file in LogDir
	LogDir  string     // Directory for daily log files. Default: ~/.mmusim/logs
	Level   slog.Level // Minimum log level. Default: LevelInfo
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	if !opts.Enabled {
		replace(slog.New(slog.DiscardHandler), nil)
		return nil
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.Console != nil {
		replace(slog.New(slog.NewTextHandler(opts.Console, handlerOpts)), nil)
		return nil
	}

	filename := opts.File
	if filename == "" {
		logDir := opts.LogDir
		if logDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			logDir = filepath.Join(home, ".mmusim", "logs")
		}

		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		// Clean up old logs (best-effort, ignore errors)
		cleanOldLogs(logDir, time.Now())

		filename = filepath.Join(logDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	replace(slog.New(slog.NewJSONHandler(f, handlerOpts)), f)
	return nil
}

// replace swaps in a new global logger and closes the file of the old one.
func replace(l *slog.Logger, f *os.File) {
	prev := file
	L, file = l, f
	if prev != nil {
		prev.Close()
	}
}

// ParseLevel parses a level name such as "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// Parse date from filename: mmusim-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
