package factindex

import (
	"testing"

	"github.com/fredericcarre/xcprobe/pkg/facts"
)

func sampleSet() *facts.Set {
	return &facts.Set{
		Processes: []facts.Process{
			{PID: 101, PPID: 1, User: "api", EvidenceRef: "evidence/ps_001.txt"},
			{PID: 202, PPID: 1, User: "postgres", EvidenceRef: "evidence/ps_001.txt"},
		},
		Ports: []facts.PortBinding{
			{Protocol: facts.ProtocolTCP, Port: 8080, PID: 101, EvidenceRef: "evidence/ss_001.txt"},
			{Protocol: facts.ProtocolTCP, Port: 5432, PID: 202, EvidenceRef: "evidence/ss_001.txt"},
		},
		Services: []facts.Service{
			{Name: "api.service", PIDRefs: []int{101}, EvidenceRef: "evidence/systemctl_001.txt"},
		},
	}
}

func TestBuild_PortsForPID(t *testing.T) {
	idx, err := Build(sampleSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer idx.Close()

	ports, err := idx.PortsForPID(101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 1 || ports[0].Port != 8080 {
		t.Fatalf("unexpected ports for pid 101: %+v", ports)
	}
}

func TestBuild_PIDsOnPort(t *testing.T) {
	idx, err := Build(sampleSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer idx.Close()

	pids, err := idx.PIDsOnPort(5432)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pids) != 1 || pids[0] != 202 {
		t.Fatalf("unexpected pids for port 5432: %v", pids)
	}
}

func TestBuild_ProcessExists(t *testing.T) {
	idx, err := Build(sampleSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer idx.Close()

	ok, err := idx.ProcessExists(101)
	if err != nil || !ok {
		t.Fatalf("expected pid 101 to exist, got ok=%v err=%v", ok, err)
	}
	ok, err = idx.ProcessExists(9999)
	if err != nil || ok {
		t.Fatalf("expected pid 9999 to not exist, got ok=%v err=%v", ok, err)
	}
}
