package facts

import (
	"testing"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

func TestParseProcessesWindows(t *testing.T) {
	text := `ProcessId|ParentProcessId|CreationDate|CommandLine
1234|1|2024-01-01T00:00:00Z|C:\nginx\nginx.exe -c C:\nginx\conf\nginx.conf
notanumber|1|2024-01-01T00:00:00Z|C:\broken.exe
`
	procs, warnings := ParseProcessesWindows(text, evidence.Ref("evidence/wmi_process_001.txt"))

	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d (warnings: %v)", len(procs), warnings)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if procs[0].PID != 1234 || procs[0].PPID != 1 {
		t.Fatalf("unexpected process: %+v", procs[0])
	}
	if procs[0].Basename() != "nginx.exe" {
		t.Fatalf("expected basename nginx.exe, got %q", procs[0].Basename())
	}
}

func TestParseServicesWindows(t *testing.T) {
	text := `Name|State|ProcessId|PathName|StartName
MyApp|Running|1234|C:\app\myapp.exe --config C:\app\config.yaml|LocalSystem
broken|only|three
`
	services, warnings := ParseServicesWindows(text, evidence.Ref("evidence/wmi_service_001.txt"))

	if len(services) != 1 {
		t.Fatalf("expected 1 service, got %d (warnings: %v)", len(services), warnings)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if services[0].Name != "MyApp" || services[0].PIDRefs[0] != 1234 {
		t.Fatalf("unexpected service: %+v", services[0])
	}
	if services[0].Manager != ManagerWindows {
		t.Fatalf("expected windows manager, got %q", services[0].Manager)
	}
}

func TestParsePortsWindows(t *testing.T) {
	text := `
Proto  Local Address          Foreign Address        State           PID
TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       1234
TCP    127.0.0.1:54321        127.0.0.1:5432         ESTABLISHED     200
UDP    0.0.0.0:123            *:*                                    50
`
	bindings, warnings := ParsePortsWindows(text, evidence.Ref("evidence/netstat_001.txt"))

	if len(bindings) != 1 {
		t.Fatalf("expected 1 listening tcp binding, got %d (warnings: %v)", len(bindings), warnings)
	}
	if bindings[0].Port != 8080 || bindings[0].PID != 1234 {
		t.Fatalf("unexpected binding: %+v", bindings[0])
	}
}

func TestParsePackagesWindows(t *testing.T) {
	text := "Node.js|18.17.0\nmalformed-no-separator\n"
	pkgs, warnings := ParsePackagesWindows(text, evidence.Ref("evidence/packages_001.txt"))
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if pkgs[0].Source != SourceWindows {
		t.Fatalf("expected windows source, got %q", pkgs[0].Source)
	}
}

func TestSplitHostPort(t *testing.T) {
	host, port, ok := splitHostPort("0.0.0.0:8080")
	if !ok || host != "0.0.0.0" || port != "8080" {
		t.Fatalf("unexpected split: host=%q port=%q ok=%v", host, port, ok)
	}
	if _, _, ok := splitHostPort("no-colon-here"); ok {
		t.Fatal("expected ok=false for a token without a colon")
	}
}
