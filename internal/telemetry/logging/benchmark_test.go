package logging

import (
	"context"
	"io"
	"testing"
)

func BenchmarkLogger_Info_Enabled(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Info("test message", "key", "value", "count", i)
	}
}

func BenchmarkLogger_Debug_Disabled(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Debug("test message", "key", "value", "count", i)
	}
}

func BenchmarkLogger_With(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.With("run_id", "run-bench", "host", "web01").Info("test message")
	}
}

func BenchmarkLogger_WithContext(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: io.Discard})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	ctx = WithRunID(ctx, "run-bench")
	ctx = WithHost(ctx, "web01.internal")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.WithContext(ctx).Info("test message")
	}
}

func BenchmarkLogger_Redaction(b *testing.B) {
	logger, err := New(Config{Level: "info", Format: "json", Redact: true, Writer: io.Discard})
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Info("collected evidence", "api_key", "sk-abc123xyz789supersecret")
	}
}

func BenchmarkNewRedactor_RedactArgs(b *testing.B) {
	redactor := NewRedactor()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		redactor.RedactArgs("api_key", "sk-abc123xyz789supersecret", "host", "web01.internal")
	}
}
