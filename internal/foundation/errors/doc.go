// Package errors provides the classified error primitives used across ytdlpd.
//
// Every error that leaves a package boundary should be a ClassifiedError so
// that the HTTP and CLI adapters can map it to a status code or exit code
// without string matching.
//
//   - ErrorCategory: what failed (validation, not_found, process, ...)
//   - ErrorSeverity: how bad it is
//   - RetryStrategy: whether trying again can help
//   - ErrorBuilder: fluent construction with structured context
//
// Example usage:
//
//	err := errors.NotFoundError("config not found").
//		WithContext("config", name).
//		Build()
package errors
