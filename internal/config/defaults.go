package config

import "time"

// Default values for configuration fields.
const (
	// Collector defaults
	DefaultWorkers          = 4
	DefaultCommandTimeout   = 30 * time.Second
	DefaultGlobalBudget     = 300 * time.Second
	DefaultMaxEvidenceBytes = 8 * 1024 * 1024
	DefaultAllowlistPath    = "allowlist.txt"
	DefaultWatchAllowlist   = false

	// Redaction defaults
	DefaultRedactionMode      = "standard"
	DefaultEntropyThreshold   = 4.0

	// Analyzer defaults
	DefaultClusterPrefix  = "app"
	DefaultMinConfidence  = 0.7
	DefaultStrictEvidence = false

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultLoggingRedact  = true
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"

	// Schedule defaults
	DefaultScheduleEnabled = false
)

// ApplyDefaults fills zero-valued string, numeric and duration fields of cfg
// with their documented defaults. Boolean fields are left as they are, so
// DefaultLoggingRedact and DefaultMetricsEnabled are not applied here. It is
// idempotent and safe to call on a partially-populated configuration loaded
// from YAML.
func ApplyDefaults(cfg *Config) {
	if cfg.Collector.Workers == 0 {
		cfg.Collector.Workers = DefaultWorkers
	}
	if cfg.Collector.CommandTimeout == 0 {
		cfg.Collector.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Collector.GlobalBudget == 0 {
		cfg.Collector.GlobalBudget = DefaultGlobalBudget
	}
	if cfg.Collector.MaxEvidenceBytes == 0 {
		cfg.Collector.MaxEvidenceBytes = DefaultMaxEvidenceBytes
	}
	if cfg.Collector.AllowlistPath == "" {
		cfg.Collector.AllowlistPath = DefaultAllowlistPath
	}

	if cfg.Redaction.Mode == "" {
		cfg.Redaction.Mode = DefaultRedactionMode
	}
	if cfg.Redaction.EntropyThreshold == 0 {
		cfg.Redaction.EntropyThreshold = DefaultEntropyThreshold
	}

	if cfg.Analyzer.ClusterPrefix == "" {
		cfg.Analyzer.ClusterPrefix = DefaultClusterPrefix
	}
	if cfg.Analyzer.MinConfidence == 0 {
		cfg.Analyzer.MinConfidence = DefaultMinConfidence
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
