// Package logging provides the per-run log file for the flashbang CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunLog is a timestamped log file receiving the global structured logger.
type RunLog struct {
	file     *os.File
	filePath string
}

// Setup creates run_YYYYMMDD_HHMMSS.log in logDir and points the global
// logger at it, tagging every record with runID. Returns nil if logging is
// disabled (noLog=true); the global logger then discards everything.
func Setup(logDir string, verbose, noLog bool, runID string, now time.Time) (*RunLog, error) {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}

	if noLog {
		Init(level, io.Discard)
		return nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	filename := fmt.Sprintf("run_%s.log", now.Format("20060102_150405"))
	filePath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}

	Init(level, file)
	if runID != "" {
		SetGlobal(Global().With(slog.String("run_id", runID)))
	}

	Info("flashbang starting", "log_file", filePath)
	Debug("debug level logging enabled")

	return &RunLog{file: file, filePath: filePath}, nil
}

// Close closes the log file.
func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path to the log file.
func (l *RunLog) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Writer returns an io.Writer that writes to the log file.
func (l *RunLog) Writer() io.Writer {
	if l == nil || l.file == nil {
		return io.Discard
	}
	return l.file
}
