package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	var total float64
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		switch {
		case pb.Counter != nil:
			total += pb.Counter.GetValue()
		case pb.Gauge != nil:
			total += pb.Gauge.GetValue()
		}
	}
	return total
}

func TestCollector_RecordCommand(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)

	c.RecordCommand("ssh", "success", 250*time.Millisecond)
	c.RecordCommand("ssh", "error", 10*time.Millisecond)

	if got := counterValue(t, c.commandsTotal); got != 2 {
		t.Errorf("commandsTotal = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := NewCollector(Config{Enabled: false}, nil)

	c.RecordCommand("ssh", "success", time.Second)
	c.RecordTimeout("per_command")
	c.AddEvidenceBytes(1024)
	c.RecordRedaction("aws_access_key", 3)
	c.SetClustersTotal(5)

	if got := counterValue(t, c.commandsTotal); got != 0 {
		t.Errorf("expected disabled collector to record nothing, commandsTotal = %v", got)
	}
	if got := counterValue(t, c.clustersTotal); got != 0 {
		t.Errorf("expected disabled collector to leave clustersTotal at 0, got %v", got)
	}
}

func TestCollector_RecordRedaction(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)

	c.RecordRedaction("aws_access_key", 2)
	c.RecordRedaction("aws_access_key", 1)
	c.RecordEntropyRedactions(4)

	if got := counterValue(t, c.redactionsTotal); got != 3 {
		t.Errorf("redactionsTotal = %v, want 3", got)
	}
	if got := counterValue(t, c.entropyRedactionsTotal); got != 4 {
		t.Errorf("entropyRedactionsTotal = %v, want 4", got)
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)

	c.SetClustersTotal(7)
	c.SetDependencyEdgesTotal(12)

	if got := counterValue(t, c.clustersTotal); got != 7 {
		t.Errorf("clustersTotal = %v, want 7", got)
	}
	if got := counterValue(t, c.dependencyEdgesTotal); got != 12 {
		t.Errorf("dependencyEdgesTotal = %v, want 12", got)
	}
}

func TestNewCollector_DefaultRegistry(t *testing.T) {
	c := NewCollector(Config{Enabled: true}, nil)
	if c.Registry() == nil {
		t.Fatal("expected a non-nil private registry")
	}
}
