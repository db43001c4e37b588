package analyzer

import (
	"testing"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/bundle"
	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
)

// s1Bundle builds the spec's S1 scenario end to end: an api process behind
// api.service listening on 8080, a postgres process behind postgresql.service
// listening on 5432, and a config snippet wiring the api to the database by
// its port.
func s1Bundle() *bundle.Bundle {
	set := facts.Set{
		Processes: []facts.Process{
			{PID: 101, PPID: 1, User: "api", Cmdline: []string{"python3", "/opt/api/app.py"}, EvidenceRef: "evidence/ps_001.txt"},
			{PID: 202, PPID: 1, User: "postgres", Cmdline: []string{"postgres"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Services: []facts.Service{
			{Name: "api.service", State: "active", PIDRefs: []int{101}, EvidenceRef: "evidence/systemctl_001.txt"},
			{Name: "postgresql.service", State: "active", PIDRefs: []int{202}, EvidenceRef: "evidence/systemctl_001.txt"},
		},
		Ports: []facts.PortBinding{
			{Protocol: facts.ProtocolTCP, Port: 8080, PID: 101, EvidenceRef: "evidence/ss_001.txt"},
			{Protocol: facts.ProtocolTCP, Port: 5432, PID: 202, EvidenceRef: "evidence/ss_001.txt"},
		},
		Configs: []facts.ConfigSnippet{
			{OriginalPath: "/etc/api/config.yaml", RedactedText: "db_url: postgres://[REDACTED]@db:5432/app"},
		},
	}
	return &bundle.Bundle{
		Manifest: bundle.Manifest{
			SchemaVersion: bundle.SchemaVersion,
			RunID:         "run-1",
			Host:          "host-1",
			Facts:         set,
		},
		Evidence: map[evidence.Ref][]byte{
			"evidence/ps_001.txt":       []byte("ps output"),
			"evidence/systemctl_001.txt": []byte("systemctl output"),
			"evidence/ss_001.txt":        []byte("ss output"),
		},
		Digest: "sha256:deadbeef",
	}
}

func TestAnalyze_S1_EndToEnd(t *testing.T) {
	plan, err := Analyze(s1Bundle(), Options{}, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %+v", len(plan.Clusters), plan.Clusters)
	}
	if len(plan.Edges) != 1 {
		t.Fatalf("expected 1 dependency edge, got %d: %+v", len(plan.Edges), plan.Edges)
	}
	if len(plan.StartupOrder) != 2 || plan.StartupOrder[0] != "app-1" {
		t.Fatalf("expected postgresql cluster to start first, got %v", plan.StartupOrder)
	}
	for _, c := range plan.Clusters {
		if c.Confidence <= 0 {
			t.Fatalf("expected cluster %q to carry a positive confidence, got %v", c.ID, c.Confidence)
		}
	}
}

// s3Bundle builds the spec's S3 scenario: a stdout-only node app with no
// owning systemd unit, whose cluster name must come from the script
// argument, not the "node" interpreter.
func s3Bundle() *bundle.Bundle {
	set := facts.Set{
		Processes: []facts.Process{
			{PID: 55, PPID: 1, User: "appuser", Cmdline: []string{"node", "/app/server.js"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Ports: []facts.PortBinding{
			{Protocol: facts.ProtocolTCP, Port: 3000, PID: 55, EvidenceRef: "evidence/ss_001.txt"},
		},
		Configs: []facts.ConfigSnippet{
			{OriginalPath: "/var/log/app/server.log", RedactedText: "DATABASE_URL: postgres://[REDACTED]@db:5432/x"},
		},
	}
	return &bundle.Bundle{
		Manifest: bundle.Manifest{
			SchemaVersion: bundle.SchemaVersion,
			RunID:         "run-2",
			Host:          "host-1",
			Facts:         set,
		},
		Evidence: map[evidence.Ref][]byte{
			"evidence/ps_001.txt": []byte("ps output"),
			"evidence/ss_001.txt": []byte("ss output"),
		},
		Digest: "sha256:feedface",
	}
}

func TestAnalyze_S3_NamesClusterAfterScriptAndSynthesizesExternalDependency(t *testing.T) {
	plan, err := Analyze(s3Bundle(), Options{}, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Clusters) != 2 {
		t.Fatalf("expected 2 clusters (app + synthesized external db), got %d: %+v", len(plan.Clusters), plan.Clusters)
	}
	if plan.Clusters[0].Name != "server.js" {
		t.Fatalf("expected first cluster named after the script, got %q", plan.Clusters[0].Name)
	}
	if len(plan.Edges) != 1 || plan.Edges[0].From != plan.Clusters[0].ID {
		t.Fatalf("expected 1 edge from the node cluster to the synthesized db cluster, got %+v", plan.Edges)
	}
}

func TestAnalyze_NonStrict_RecordsEvidenceMissingAsWarning(t *testing.T) {
	b := s1Bundle()
	delete(b.Evidence, "evidence/ss_001.txt")

	plan, err := Analyze(b, Options{}, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected evidence_missing to be a warning, not a fatal error, got: %v", err)
	}
	found := false
	for _, c := range plan.Clusters {
		for _, w := range c.Warnings {
			if w == "evidence_missing: evidence/ss_001.txt" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected an evidence_missing warning on some cluster, got: %+v", plan.Clusters)
	}
}

func TestAnalyze_StrictEvidence_FailsOnMissingRef(t *testing.T) {
	b := s1Bundle()
	delete(b.Evidence, "evidence/ss_001.txt")

	_, err := Analyze(b, Options{StrictEvidence: true}, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected an EvidenceMissingError in strict mode")
	}
	if _, ok := err.(*EvidenceMissingError); !ok {
		t.Fatalf("expected *EvidenceMissingError, got %T: %v", err, err)
	}
}

func TestAnalyze_FlagsClusterBelowMinConfidence(t *testing.T) {
	plan, err := Analyze(s1Bundle(), Options{MinConfidence: 0.999}, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, c := range plan.Clusters {
		if c.BelowMinConfidence {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one cluster flagged below an unreachable min_confidence threshold")
	}
}
