package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// Logger is the global logger instance
	Logger  *slog.Logger
	logFile *os.File
	level   = new(slog.LevelVar)
)

// Options selects the handler built by Init
type Options struct {
	Level string
	JSON  bool
	// ToFile also writes to File, or to the default log path when File is empty
	ToFile bool
	File   string
	// Quiet drops every record
	Quiet bool
	// Writer replaces stderr as the console destination
	Writer io.Writer
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the logger with the specified level, format, and file output
func Init(o Options) error {
	if err := Close(); err != nil {
		return err
	}

	if o.Quiet {
		Logger = slog.New(slog.DiscardHandler)
		return nil
	}

	level.Set(ParseLevel(o.Level))
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var writer io.Writer = os.Stderr
	if o.Writer != nil {
		writer = o.Writer
	}

	if o.ToFile || o.File != "" {
		logPath := o.File
		if logPath == "" {
			var err error
			logPath, err = getLogFilePath()
			if err != nil {
				return fmt.Errorf("failed to determine log file path: %w", err)
			}
		}

		logDir := filepath.Dir(logPath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		logFile = f

		// Write to both file and the console
		writer = io.MultiWriter(writer, logFile)
	}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	Logger = slog.New(handler)
	return nil
}

// Level returns the active minimum level
func Level() slog.Level {
	return level.Level()
}

// Get returns the global logger, or one that discards when Init was never called
func Get() *slog.Logger {
	if Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return Logger
}

// getLogFilePath returns the platform-appropriate log file path
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir unavailable
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheDir = filepath.Join(homeDir, ".cache")
	}

	return filepath.Join(cacheDir, "muda", "logs", "muda.log"), nil
}

// GetLogFilePath returns the default log file path without creating it
func GetLogFilePath() (string, error) {
	return getLogFilePath()
}

// Close closes the log file if it was opened
func Close() error {
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}
