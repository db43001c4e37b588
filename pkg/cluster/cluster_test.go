package cluster

import (
	"testing"

	"github.com/fredericcarre/xcprobe/pkg/facts"
)

// s1Set builds the spec's S1 scenario: an api process and a postgres
// process, each owned by an active systemd unit, each listening on its
// characteristic port.
func s1Set() *facts.Set {
	return &facts.Set{
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
	}
}

func TestBuild_S1_TwoIndependentClusters(t *testing.T) {
	clusters := Build(s1Set(), "")

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %+v", len(clusters), clusters)
	}
	if clusters[0].ID != "app-0" || clusters[1].ID != "app-1" {
		t.Fatalf("expected dense ids app-0, app-1, got %q, %q", clusters[0].ID, clusters[1].ID)
	}
	if clusters[0].Name != "api" || clusters[0].AppType != AppTypeAPI {
		t.Fatalf("unexpected first cluster: %+v", clusters[0])
	}
	if clusters[1].Name != "postgresql" || clusters[1].AppType != AppTypeDB {
		t.Fatalf("unexpected second cluster: %+v", clusters[1])
	}
}

func TestBuild_S2_WrapperAndEnvFileUnion(t *testing.T) {
	set := &facts.Set{
		Processes: []facts.Process{
			{PID: 10, PPID: 1, User: "appuser", Cmdline: []string{"/bin/bash", "wrapper.sh"}, Cwd: "/opt/wrapped-app", EvidenceRef: "evidence/ps_001.txt"},
			{PID: 11, PPID: 10, User: "appuser", Cmdline: []string{"python3", "/opt/wrapped-app/app.py"}, Cwd: "/opt/wrapped-app", EnvNames: []string{"DATABASE_URL"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Services: []facts.Service{
			{Name: "wrapped-app.service", State: "active", PIDRefs: []int{10}, EnvFilePaths: []string{"/etc/wrapped-app/env"}, EvidenceRef: "evidence/systemctl_001.txt"},
		},
	}

	clusters := Build(set, "")

	if len(clusters) != 1 {
		t.Fatalf("expected processes to merge into a single cluster, got %d: %+v", len(clusters), clusters)
	}
	if len(clusters[0].ProcessPIDs) != 2 {
		t.Fatalf("expected both pids in the merged cluster, got %v", clusters[0].ProcessPIDs)
	}
	found := false
	for _, name := range clusters[0].EnvNames {
		if name == "DATABASE_URL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected env name DATABASE_URL to be surfaced, got %v", clusters[0].EnvNames)
	}
}

func TestBuild_S4_BatchJobNoPorts(t *testing.T) {
	set := &facts.Set{
		Processes: []facts.Process{
			{PID: 77, PPID: 1, User: "batch", Cmdline: []string{"python3", "/opt/nightly/job.py"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Services: []facts.Service{
			{Name: "nightly.timer", State: "active", ExecStart: "/opt/nightly/job.py", EvidenceRef: "evidence/systemctl_001.txt"},
		},
	}

	clusters := Build(set, "")
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].AppType != AppTypeBatch {
		t.Fatalf("expected batch app_type, got %q", clusters[0].AppType)
	}
}

func TestBuild_NonBusinessProcessesExcluded(t *testing.T) {
	set := &facts.Set{
		Processes: []facts.Process{
			{PID: 1, PPID: 0, User: "root", Cmdline: []string{"systemd"}, EvidenceRef: "evidence/ps_001.txt"},
			{PID: 9, PPID: 2, User: "root", Cmdline: []string{"kworker/0:1"}, EvidenceRef: "evidence/ps_001.txt"},
		},
	}
	clusters := Build(set, "")
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters from non-business processes, got %+v", clusters)
	}
}

func TestBuild_DensePrefixedIDs(t *testing.T) {
	clusters := Build(s1Set(), "myapp")
	for i, c := range clusters {
		want := "myapp-0"
		if i == 1 {
			want = "myapp-1"
		}
		if c.ID != want {
			t.Fatalf("cluster %d: want id %q, got %q", i, want, c.ID)
		}
	}
}

func TestBuild_S3_NamesNodeAppAfterScriptNotInterpreter(t *testing.T) {
	set := &facts.Set{
		Processes: []facts.Process{
			{PID: 55, PPID: 1, User: "appuser", Cmdline: []string{"node", "/app/server.js"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Ports: []facts.PortBinding{
			{Protocol: facts.ProtocolTCP, Port: 3000, PID: 55, EvidenceRef: "evidence/ss_001.txt"},
		},
	}

	clusters := Build(set, "")
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d: %+v", len(clusters), clusters)
	}
	if clusters[0].Name != "server.js" {
		t.Fatalf("expected cluster named after the script, got %q", clusters[0].Name)
	}
	if clusters[0].AppType != AppTypeAPI {
		t.Fatalf("expected api app_type, got %q", clusters[0].AppType)
	}
}

func TestBuild_ParentChildBothBusinessUnion(t *testing.T) {
	set := &facts.Set{
		Processes: []facts.Process{
			{PID: 1000, PPID: 1, User: "appuser", Cmdline: []string{"node", "/app/parent.js"}, EvidenceRef: "evidence/ps_001.txt"},
			{PID: 1001, PPID: 1000, User: "appuser", Cmdline: []string{"node", "/app/child.js"}, EvidenceRef: "evidence/ps_001.txt"},
		},
		Ports: []facts.PortBinding{
			{Protocol: facts.ProtocolTCP, Port: 3000, PID: 1000, EvidenceRef: "evidence/ss_001.txt"},
		},
	}
	clusters := Build(set, "")
	if len(clusters) != 1 {
		t.Fatalf("expected parent/child business pair to merge, got %d clusters: %+v", len(clusters), clusters)
	}
	if len(clusters[0].ProcessPIDs) != 2 {
		t.Fatalf("expected 2 pids in merged cluster, got %v", clusters[0].ProcessPIDs)
	}
}
