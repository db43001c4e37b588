package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies default values, validates the result, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies XCPROBE_SECTION_FIELD environment variable overrides, which
// always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies XCPROBE_SECTION_FIELD environment variable
// overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("XCPROBE_COLLECTOR_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Collector.Workers = i
		}
	}
	if val := os.Getenv("XCPROBE_COLLECTOR_COMMAND_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Collector.CommandTimeout = d
		}
	}
	if val := os.Getenv("XCPROBE_COLLECTOR_GLOBAL_BUDGET"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Collector.GlobalBudget = d
		}
	}
	if val := os.Getenv("XCPROBE_COLLECTOR_ALLOWLIST_PATH"); val != "" {
		cfg.Collector.AllowlistPath = val
	}
	if val := os.Getenv("XCPROBE_COLLECTOR_WATCH_ALLOWLIST"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Collector.WatchAllowlist = b
		}
	}

	if val := os.Getenv("XCPROBE_REDACTION_MODE"); val != "" {
		cfg.Redaction.Mode = val
	}
	if val := os.Getenv("XCPROBE_REDACTION_ENTROPY_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Redaction.EntropyThreshold = f
		}
	}

	if val := os.Getenv("XCPROBE_ANALYZER_CLUSTER_PREFIX"); val != "" {
		cfg.Analyzer.ClusterPrefix = val
	}
	if val := os.Getenv("XCPROBE_ANALYZER_MIN_CONFIDENCE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Analyzer.MinConfidence = f
		}
	}
	if val := os.Getenv("XCPROBE_ANALYZER_STRICT_EVIDENCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Analyzer.StrictEvidence = b
		}
	}

	if val := os.Getenv("XCPROBE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("XCPROBE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("XCPROBE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	if val := os.Getenv("XCPROBE_SCHEDULE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Schedule.Enabled = b
		}
	}
	if val := os.Getenv("XCPROBE_SCHEDULE_CRON_EXPRESSION"); val != "" {
		cfg.Schedule.CronExpression = val
	}
}
