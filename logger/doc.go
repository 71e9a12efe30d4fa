// Package logger provides structured logging for streamkit using
// zerolog.
//
// It is the diagnostic sink for signals that cannot be surfaced to a
// consumer: dropped values, dropped errors, and resource cleanup
// failures on already-terminated or cancelled subscriptions.
//
// # Usage
//
//	log := logger.Get("sinks")
//	log.Warn("value dropped", logger.Fields(logger.FieldSinkID, id))
package logger
