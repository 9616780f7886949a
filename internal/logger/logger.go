// Package logger configures the process-wide logrus logger for chunkctl.
//
// Library packages log through component loggers derived from the logrus
// standard logger; Init decides where that output goes. Until Init is
// called everything is discarded.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	logPrefix     = "chunkctl-"
	logSuffix     = ".log"
	retentionDays = 30
)

func init() {
	logrus.SetOutput(io.Discard)
}

// Options configures the logger initialization.
type Options struct {
	Level  string    // logrus level name; "" means info
	Format string    // "text" (default) or "json"
	LogDir string    // if set, log to a dated file in this directory
	Output io.Writer // used when LogDir is empty; nil discards
}

// Init configures logging. Call from the command entry point before any
// log calls. It returns a close function for the log file, if any.
func Init(opts Options) (func() error, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}
	logrus.SetLevel(level)

	if opts.LogDir == "" {
		out := opts.Output
		if out == nil {
			out = io.Discard
		}
		logrus.SetOutput(out)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, err
	}

	// Best effort.
	cleanOldLogs(opts.LogDir, time.Now())

	filename := filepath.Join(opts.LogDir, logFileName(time.Now()))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(f)
	return func() error {
		logrus.SetOutput(io.Discard)
		return f.Close()
	}, nil
}

func logFileName(t time.Time) string {
	return logPrefix + t.Format("2006-01-02") + logSuffix
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

		// chunkctl-2024-01-05.log
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
