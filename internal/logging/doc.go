// Package logging assembles structured slog loggers for crosstalk.
//
// It owns the console and JSON handlers, parses level and output settings
// from config, and tags log lines with the run ID, pipeline stage and event
// index carried on the context. NewNop returns a logger for tests and wiring
// code that has nowhere to write.
package logging
