package logging

import (
	"context"
)

// Context keys for fields that should be attached to every log line emitted
// while a collection run or an analysis run is in flight.
type contextKey string

const (
	// RunIDKey is the context key for the collection/analysis run identifier.
	RunIDKey contextKey = "run_id"

	// HostKey is the context key for the target host being collected from.
	HostKey contextKey = "host"

	// BundleDigestKey is the context key for the bundle's content digest.
	BundleDigestKey contextKey = "bundle_digest"

	// CommandSeqKey is the context key for the audit sequence number of the
	// command currently executing.
	CommandSeqKey contextKey = "command_seq"

	// ClusterIDKey is the context key for the cluster currently being
	// processed during analysis.
	ClusterIDKey contextKey = "cluster_id"
)

// WithRunID adds a run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run identifier from the context.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey).(string); ok {
		return v
	}
	return ""
}

// WithHost adds the target host to the context.
func WithHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, HostKey, host)
}

// GetHost retrieves the target host from the context.
func GetHost(ctx context.Context) string {
	if v, ok := ctx.Value(HostKey).(string); ok {
		return v
	}
	return ""
}

// WithBundleDigest adds the bundle digest to the context.
func WithBundleDigest(ctx context.Context, digest string) context.Context {
	return context.WithValue(ctx, BundleDigestKey, digest)
}

// GetBundleDigest retrieves the bundle digest from the context.
func GetBundleDigest(ctx context.Context) string {
	if v, ok := ctx.Value(BundleDigestKey).(string); ok {
		return v
	}
	return ""
}

// WithCommandSeq adds the current audit sequence number to the context.
func WithCommandSeq(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, CommandSeqKey, seq)
}

// GetCommandSeq retrieves the current audit sequence number from the context.
func GetCommandSeq(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(CommandSeqKey).(uint64)
	return v, ok
}

// WithClusterID adds the cluster currently under analysis to the context.
func WithClusterID(ctx context.Context, clusterID string) context.Context {
	return context.WithValue(ctx, ClusterIDKey, clusterID)
}

// GetClusterID retrieves the cluster currently under analysis from the context.
func GetClusterID(ctx context.Context) string {
	if v, ok := ctx.Value(ClusterIDKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetRunID(ctx); v != "" {
		fields = append(fields, "run_id", v)
	}
	if v := GetHost(ctx); v != "" {
		fields = append(fields, "host", v)
	}
	if v := GetBundleDigest(ctx); v != "" {
		fields = append(fields, "bundle_digest", v)
	}
	if v, ok := GetCommandSeq(ctx); ok {
		fields = append(fields, "command_seq", v)
	}
	if v := GetClusterID(ctx); v != "" {
		fields = append(fields, "cluster_id", v)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
