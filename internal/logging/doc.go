// Package logging assembles structured slog loggers and formatting helpers used
// across autotagger commands.
//
// It owns the configurable console/JSON handlers, the rotating log file sink,
// and context-aware helpers so workflow code can tag log lines with run IDs,
// stages, files, and episode identifiers. Credential-bearing attributes are
// redacted before they reach any handler. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
