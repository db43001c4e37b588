package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config controls how the Collector names and scopes its metrics.
type Config struct {
	// Enabled turns metric recording on. When false, every Record/Update
	// method is a no-op, so callers never need to branch on it themselves.
	Enabled bool

	// Namespace and Subsystem are prepended to every metric name
	// ("<namespace>_<subsystem>_<metric>").
	Namespace string
	Subsystem string

	// CommandDurationBuckets overrides the histogram buckets (in seconds)
	// used for collector command execution time.
	CommandDurationBuckets []float64
}

// Collector is the orchestrator for XCProbe's Prometheus metrics: it tracks
// collection-time activity (commands run, timeouts, evidence volume) and
// analysis-time activity (redactions applied, clusters produced).
type Collector struct {
	config   Config
	registry *prometheus.Registry

	commandsTotal        *prometheus.CounterVec
	commandDuration       *prometheus.HistogramVec
	timeoutsTotal         *prometheus.CounterVec
	evidenceBytesTotal    prometheus.Counter
	redactionsTotal       *prometheus.CounterVec
	entropyRedactionsTotal prometheus.Counter
	clustersTotal         prometheus.Gauge
	dependencyEdgesTotal  prometheus.Gauge
}

// NewCollector creates a metrics collector bound to registry. If registry is
// nil, a fresh, private *prometheus.Registry is used (never the global
// default registry, so multiple Collectors in the same process don't
// collide).
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "xcprobe"
	}
	if len(cfg.CommandDurationBuckets) == 0 {
		cfg.CommandDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	}

	c := &Collector{config: cfg, registry: registry}

	c.commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "commands_total",
		Help:      "Total number of collector commands executed, by transport and outcome.",
	}, []string{"transport", "outcome"})

	c.commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "command_duration_seconds",
		Help:      "Duration of collector command execution.",
		Buckets:   cfg.CommandDurationBuckets,
	}, []string{"transport"})

	c.timeoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "timeouts_total",
		Help:      "Total number of commands that exceeded their timeout, by kind (per_command, budget).",
	}, []string{"kind"})

	c.evidenceBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "evidence_bytes_total",
		Help:      "Total bytes of raw command output written to evidence records, before redaction.",
	})

	c.redactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "redactions_total",
		Help:      "Total number of values redacted, by pattern id (entropy-pass hits are counted in entropy_redactions_total).",
	}, []string{"pattern"})

	c.entropyRedactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "entropy_redactions_total",
		Help:      "Total number of high-entropy tokens redacted.",
	})

	c.clustersTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "clusters_total",
		Help:      "Number of application clusters produced by the most recent analysis run.",
	})

	c.dependencyEdgesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "dependency_edges_total",
		Help:      "Number of dependency edges produced by the most recent analysis run.",
	})

	registry.MustRegister(
		c.commandsTotal,
		c.commandDuration,
		c.timeoutsTotal,
		c.evidenceBytesTotal,
		c.redactionsTotal,
		c.entropyRedactionsTotal,
		c.clustersTotal,
		c.dependencyEdgesTotal,
	)

	return c
}

// RecordCommand records the outcome and duration of a single collector
// command execution.
func (c *Collector) RecordCommand(transport, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.commandsTotal.WithLabelValues(transport, outcome).Inc()
	c.commandDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordTimeout records a per-command or whole-run budget timeout.
func (c *Collector) RecordTimeout(kind string) {
	if !c.config.Enabled {
		return
	}
	c.timeoutsTotal.WithLabelValues(kind).Inc()
}

// AddEvidenceBytes accumulates the number of raw bytes written to an
// evidence record, before redaction.
func (c *Collector) AddEvidenceBytes(n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.evidenceBytesTotal.Add(float64(n))
}

// RecordRedaction records one or more matches of a named pattern.
func (c *Collector) RecordRedaction(pattern string, count int) {
	if !c.config.Enabled || count <= 0 {
		return
	}
	c.redactionsTotal.WithLabelValues(pattern).Add(float64(count))
}

// RecordEntropyRedactions records the number of high-entropy tokens redacted
// in a single pass.
func (c *Collector) RecordEntropyRedactions(count int) {
	if !c.config.Enabled || count <= 0 {
		return
	}
	c.entropyRedactionsTotal.Add(float64(count))
}

// SetClustersTotal sets the cluster count gauge to the result of the most
// recent analysis run.
func (c *Collector) SetClustersTotal(n int) {
	if !c.config.Enabled {
		return
	}
	c.clustersTotal.Set(float64(n))
}

// SetDependencyEdgesTotal sets the dependency edge count gauge to the result
// of the most recent analysis run.
func (c *Collector) SetDependencyEdgesTotal(n int) {
	if !c.config.Enabled {
		return
	}
	c.dependencyEdgesTotal.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector, for
// mounting an HTTP handler or for tests that want to read back samples.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
