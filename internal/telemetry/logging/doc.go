// Package logging provides structured logging with secret redaction for
// collection and analysis runs.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Secret-shaped field redaction, delegated to pkg/redact
//   - Context-aware logging carrying run_id, host, bundle_digest,
//     command_seq, and cluster_id
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	logger.Info("command executed",
//	    "command_seq", 12,
//	    "api_key", "sk-abc123",  // redacted before it reaches the writer
//	)
//
//	ctx := logging.WithRunID(ctx, "run-123")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("collection started")  // includes run_id automatically
//
// # Redaction
//
// When Redact is enabled, Logger runs every string-valued field through the
// same pattern and entropy passes that redact.Redact applies to evidence
// content, plus a key-name check that masks any field whose key looks
// sensitive (password, token, authorization, ...) regardless of whether its
// value would independently match a pattern. Such a string value keeps at
// most its first 4 characters followed by "***"; values of 4 characters or
// fewer, and non-string values, become "***".
package logging
