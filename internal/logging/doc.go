// Package logging assembles structured slog loggers and formatting helpers used
// across StoryCodex.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the stage name, scene id and run id. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
