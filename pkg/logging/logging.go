// Package logging builds the run logger. Output goes to a rotating file so the
// terminal stays reserved for the interactive session.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 5
	maxBackups = 5
	maxAgeDays = 30
)

type Options struct {
	File    string
	Level   string
	Verbose bool
	// Stderr receives a copy of every entry when Verbose is set.
	Stderr io.Writer
}

// Logger is the run logger plus the rotating file behind it.
type Logger struct {
	*log.Logger
	RunID string
	file  *lumberjack.Logger
}

// New opens the log file, creating its directory when needed.
func New(opts Options) (*Logger, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		lvl, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	var w io.Writer = file
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		w = io.MultiWriter(file, stderr)
	}

	runID := uuid.NewString()
	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "qfxsync",
		Level:           level,
		Formatter:       log.LogfmtFormatter,
	}).With("run", runID)

	logger.Info("starting importer", "log_file", opts.File)
	return &Logger{Logger: logger, RunID: runID, file: file}, nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

