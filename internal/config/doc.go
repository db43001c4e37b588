// Package config loads, validates, and holds the root XCProbe
// configuration: the collector's worker pool and timeouts, the
// redaction engine's tuning, the analyzer's clustering thresholds, the
// telemetry stack, and an optional collection schedule.
//
// Configuration is applied in order: defaults (defaults.go) < YAML file
// < XCPROBE_SECTION_FIELD environment overrides, then validated
// (validate.go). The singleton in singleton.go exists only for
// cmd/xcprobe's entrypoint; core packages always take an explicit
// *Config so analysis stays a pure function of its inputs.
package config
