package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger appends a launched target's output to .superrun/logs/targets/<id>.log
// so users can inspect it after the launch batch is done.
type Logger struct {
	path string
	file *os.File
}

// New creates (or reuses) the output file for one target.
func New(logDir, targetID string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName(targetID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{path: path, file: f}, nil
}

// FileName maps a target ID onto a safe file name.
func FileName(targetID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(targetID) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		name = "target"
	}
	return name + ".log"
}

// Path returns the output file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// File exposes the handle so it can be used as a child's stdout and stderr.
func (l *Logger) File() *os.File {
	if l == nil {
		return nil
	}
	return l.file
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single timestamped marker line, e.g. around a launch.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)
	fmt.Fprintf(l.file, "==> [%s] %s\n", timestamp, line)
}
