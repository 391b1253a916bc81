package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"autotagger/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives human-facing output. Defaults to stderr so stdout stays
	// free for prompts and reports.
	Console io.Writer
	// File enables a rotating JSON log file when non-nil.
	File        *FileOptions
	Development bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New constructs a slog logger using the provided options. The returned closer
// releases the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	addSource := opts.Development || level <= slog.LevelDebug

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var consoleHandler slog.Handler
	switch format {
	case "json":
		consoleHandler = newJSONHandler(console, levelVar, addSource)
	case "console":
		consoleHandler = newPrettyHandler(console, levelVar, addSource)
	default:
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if opts.File == nil {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	sink, err := newRotatingFile(*opts.File)
	if err != nil {
		return nil, nil, err
	}
	// The file always records debug output so a failed run can be diagnosed
	// after the fact.
	fileHandler := newJSONHandler(sink, slog.LevelDebug, true)
	return slog.New(newTeeHandler(consoleHandler, fileHandler)), sink, nil
}

// NewFromConfig creates a logger from the [logging] and [paths] sections.
// Console output goes to console, or stderr when console is nil.
func NewFromConfig(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: console})
	}

	opts := Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: console,
	}
	if path := cfg.LogFilePath(); path != "" {
		opts.File = &FileOptions{
			Path:       path,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		}
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
