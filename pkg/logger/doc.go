// Package logger builds configured log/slog loggers for the rest of
// the module. The session cleanup runner and middleware log through
// whatever *slog.Logger they are handed; this package is the single
// place deciding level, format and destination.
package logger
