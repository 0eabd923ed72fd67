// Package logging assembles structured slog loggers and formatting helpers used
// across gale8.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so detection and assembly code tag log
// lines with the run id and the recording being processed. A no-op logger is
// provided for tests and for wiring code that receives a nil logger.
package logging
