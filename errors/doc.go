// Package errors provides structured error types for stream signal
// handling. It implements error codes for the protocol taxonomy
// (overflow, protocol violations, cleanup failures) and explicit
// suppressed-cause chaining, so a secondary failure raised while
// handling a primary one never erases the original cause.
package errors
