// Package logger provides structured logging for ccm.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: construction, level handling, package-level default
//   - context.go: logger and start-attempt propagation through context
//   - redact.go: masking of sensitive configuration values
package logger
