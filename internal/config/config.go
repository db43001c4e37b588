package config

import "time"

// Config is the root configuration structure for XCProbe.
type Config struct {
	// Collector configures evidence collection against a target host.
	Collector CollectorConfig `yaml:"collector"`

	// Redaction configures the redaction engine applied to every
	// evidence write and log field.
	Redaction RedactionConfig `yaml:"redaction"`

	// Analyzer configures the offline analysis pipeline.
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Schedule configures optional recurring collection runs.
	Schedule ScheduleConfig `yaml:"schedule"`
}

// CollectorConfig controls the collection worker pool, timeouts, and
// the command allowlist used by the Transport.
type CollectorConfig struct {
	// Workers is the size of the bounded worker pool executing
	// allowlisted commands in parallel.
	Workers int `yaml:"workers"`

	// CommandTimeout bounds a single command's execution.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// GlobalBudget bounds the entire collection run; once exhausted, no
	// further commands are submitted but the bundle is still sealed.
	GlobalBudget time.Duration `yaml:"global_budget"`

	// MaxEvidenceBytes truncates any single evidence write past this
	// size (default 8 MiB, per the evidence store's contract).
	MaxEvidenceBytes int64 `yaml:"max_evidence_bytes"`

	// AllowlistPath points at the file listing permitted command names, one
	// per line; blank lines and lines starting with "#" are skipped.
	AllowlistPath string `yaml:"allowlist_path"`

	// WatchAllowlist watches AllowlistPath during a collection run
	// (xcprobe collect --watch-allowlist) and logs each change. The running
	// pass keeps the allowlist it started with.
	WatchAllowlist bool `yaml:"watch_allowlist"`
}

// RedactionConfig tunes the redaction engine.
type RedactionConfig struct {
	// Mode selects "standard" (fixed placeholder) or "hash" (placeholder
	// holding the first 12 hex characters of the value's SHA-256) redaction.
	Mode string `yaml:"mode"`

	// EntropyThreshold is the minimum Shannon entropy (bits/byte) for a
	// candidate token to be treated as a secret. It is defaulted and
	// validated but not passed to the redaction engine: redact.Redact
	// always applies redact.DefaultEntropyThreshold (4.0).
	EntropyThreshold float64 `yaml:"entropy_threshold"`
}

// AnalyzerConfig controls the clustering and dependency-detection pipeline.
type AnalyzerConfig struct {
	// ClusterPrefix is the id prefix assigned to discovered clusters
	// ("<prefix>-<n>").
	ClusterPrefix string `yaml:"cluster_prefix"`

	// MinConfidence is the threshold below which a cluster is flagged
	// (not dropped) in the pack plan.
	MinConfidence float64 `yaml:"min_confidence"`

	// StrictEvidence makes a decision referencing a missing evidence ref
	// a fatal error instead of a warning.
	StrictEvidence bool `yaml:"strict_evidence"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text", "console").
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	AddSource bool `yaml:"add_source"`

	// Redact enables field-value redaction using the shared engine.
	Redact bool `yaml:"redact"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScheduleConfig configures an optional recurring collection run.
type ScheduleConfig struct {
	// Enabled turns on the cron-driven recurring collection.
	Enabled bool `yaml:"enabled"`

	// CronExpression is a standard 5-field cron expression (robfig/cron
	// v3 standard parser, no seconds field); descriptors such as "@daily"
	// or "@every 1h" are also accepted.
	CronExpression string `yaml:"cron_expression"`
}
