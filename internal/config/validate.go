package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "collector.workers").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCollector(&cfg.Collector)...)
	errs = append(errs, validateRedaction(&cfg.Redaction)...)
	errs = append(errs, validateAnalyzer(&cfg.Analyzer)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCollector(c *CollectorConfig) []FieldError {
	var errs []FieldError
	if c.Workers <= 0 {
		errs = append(errs, FieldError{"collector.workers", "must be positive"})
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, FieldError{"collector.command_timeout", "must be positive"})
	}
	if c.GlobalBudget <= 0 {
		errs = append(errs, FieldError{"collector.global_budget", "must be positive"})
	}
	if c.GlobalBudget < c.CommandTimeout {
		errs = append(errs, FieldError{"collector.global_budget", "must be at least command_timeout"})
	}
	if c.MaxEvidenceBytes <= 0 {
		errs = append(errs, FieldError{"collector.max_evidence_bytes", "must be positive"})
	}
	if c.AllowlistPath == "" {
		errs = append(errs, FieldError{"collector.allowlist_path", "must not be empty"})
	}
	return errs
}

func validateRedaction(r *RedactionConfig) []FieldError {
	var errs []FieldError
	if r.Mode != "standard" && r.Mode != "hash" {
		errs = append(errs, FieldError{"redaction.mode", fmt.Sprintf("unknown mode %q, want standard or hash", r.Mode)})
	}
	if r.EntropyThreshold <= 0 {
		errs = append(errs, FieldError{"redaction.entropy_threshold", "must be positive"})
	}
	return errs
}

func validateAnalyzer(a *AnalyzerConfig) []FieldError {
	var errs []FieldError
	if a.ClusterPrefix == "" {
		errs = append(errs, FieldError{"analyzer.cluster_prefix", "must not be empty"})
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		errs = append(errs, FieldError{"analyzer.min_confidence", "must be in [0, 1]"})
	}
	return errs
}

func validateSchedule(s *ScheduleConfig) []FieldError {
	var errs []FieldError
	if s.Enabled && s.CronExpression == "" {
		errs = append(errs, FieldError{"schedule.cron_expression", "required when schedule.enabled is true"})
	}
	return errs
}
