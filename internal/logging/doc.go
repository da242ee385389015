// Package logging assembles structured slog loggers and formatting helpers
// used by the scanner and the CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so scan code can tag log lines
// with scan ids and file paths. The package also provides a no-op logger for
// tests and for code paths that must stay silent.
package logging
