// Package runlog provides file-based logging for validation runs.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger appends timestamped lines to a run log file with thread-safe
// access. A zero-value Logger is a no-op.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a logger writing to the specified path. If the path is
// empty, returns a no-op logger. Creates parent directories if they
// don't exist.
func New(logPath string) (*Logger, error) {
	if logPath == "" {
		return &Logger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{file: f}, nil
}

// Nop returns a no-op logger for testing or when logging is disabled.
func Nop() *Logger {
	return &Logger{}
}

// Infof writes a timestamped INFO line.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write("INFO", format, args...)
}

// Warnf writes a timestamped WARN line.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

// Errorf writes a timestamped ERROR line.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

// write appends a line to the log file. If the logger is nil or has no
// file, this is a no-op.
func (l *Logger) write(level, format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(time.RFC3339)
	fmt.Fprintf(l.file, "%s %s %s\n", timestamp, level, msg)
	l.file.Sync()
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
