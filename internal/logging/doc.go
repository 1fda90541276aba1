// Package logging wraps log/slog with the attribute helpers and construction
// options used throughout the engine.
//
// Loggers are built from config (level, format, optional log file) and passed
// down explicitly; components derive a tagged child via NewComponentLogger.
// The helpers in attrs.go keep field names consistent across packages so the
// two host processes produce comparable log streams.
package logging
