// Package metrics provides Prometheus metrics collection for XCProbe
// collection and analysis runs.
//
// # Overview
//
// The metrics package tracks two phases of a run:
//
//   - Collection: commands executed against a host (count, duration,
//     outcome, timeouts) and the volume of raw evidence written.
//   - Analysis: how much redaction fired, and the size of the resulting
//     cluster graph (cluster count, dependency edge count).
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "xcprobe"}, nil)
//
//	start := time.Now()
//	// ... run a collector command ...
//	collector.RecordCommand("ssh", "success", time.Since(start))
//
//	collector.RecordRedaction(redact.PatternAWSAccessKey, 1)
//	collector.SetClustersTotal(len(clusters))
//
// # Prometheus Endpoint
//
// All metrics are exposed via Collector.Handler() in standard Prometheus
// exposition format:
//
//	# HELP xcprobe_commands_total Total number of collector commands executed, by transport and outcome.
//	# TYPE xcprobe_commands_total counter
//	xcprobe_commands_total{transport="ssh",outcome="success"} 42
package metrics
