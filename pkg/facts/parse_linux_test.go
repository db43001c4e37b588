package facts

import (
	"strings"
	"testing"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

func TestParseProcessesLinux(t *testing.T) {
	text := `101 1 api 2024-01-01T00:00:00Z 12:03:41 python3 /opt/api/app.py --port 8080
102 101 root 2024-01-01T00:00:01Z 00:05:02 kworker/0:1
this line is garbage
`
	procs, warnings := ParseProcessesLinux(text, evidence.Ref("evidence/ps_001.txt"))

	if len(procs) != 2 {
		t.Fatalf("expected 2 processes, got %d (warnings: %v)", len(procs), warnings)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the garbage line, got %v", warnings)
	}
	if procs[0].PID != 101 || procs[0].PPID != 1 || procs[0].User != "api" {
		t.Fatalf("unexpected first process: %+v", procs[0])
	}
	if procs[0].Basename() != "python3" {
		t.Fatalf("expected basename python3, got %q", procs[0].Basename())
	}
	if len(procs[0].Cmdline) != 4 {
		t.Fatalf("expected 4 cmdline tokens, got %v", procs[0].Cmdline)
	}
}

func TestParseProcessesLinux_SkipsNonNumericPID(t *testing.T) {
	text := "notapid 1 root 2024-01-01T00:00:00Z 00:00:01 sh -c true\n"
	procs, warnings := ParseProcessesLinux(text, evidence.Ref("evidence/ps_001.txt"))
	if len(procs) != 0 {
		t.Fatalf("expected no processes parsed, got %d", len(procs))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestParseElapsed(t *testing.T) {
	cases := map[string]bool{
		"00:05:02":    true,
		"12:03:41":    true,
		"1-02:03:04":  true,
		"not-a-time":  false,
	}
	for input, shouldBeNonNegative := range cases {
		d := parseElapsed(input)
		if shouldBeNonNegative && d < 0 {
			t.Fatalf("parseElapsed(%q) returned negative duration", input)
		}
	}
}

func TestParsePortsLinux(t *testing.T) {
	text := `Netid State  Recv-Q Send-Q Local Address:Port  Peer Address:Port
tcp   LISTEN 0      128    0.0.0.0:8080         0.0.0.0:*            users:(("python3",pid=101,fd=6))
tcp   LISTEN 0      128    127.0.0.1:5432       0.0.0.0:*            users:(("postgres",pid=200,fd=7))
not a socket line at all
`
	bindings, warnings := ParsePortsLinux(text, evidence.Ref("evidence/ss_001.txt"))

	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d (warnings: %v)", len(bindings), warnings)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the unrecognized line, got %v", warnings)
	}
	if bindings[0].Port != 8080 || bindings[0].PID != 101 {
		t.Fatalf("unexpected first binding: %+v", bindings[0])
	}
	if bindings[0].Protocol != ProtocolTCP {
		t.Fatalf("expected tcp protocol, got %q", bindings[0].Protocol)
	}
}

func TestParseSystemdShow(t *testing.T) {
	text := `Id=myapp.service
MainPID=101
FragmentPath=/etc/systemd/system/myapp.service
ExecStart=/opt/api/app.py
WorkingDirectory=/opt/api
User=api
EnvironmentFile=/etc/myapp/env
ActiveState=active

Id=other.service
MainPID=101
ActiveState=active
`
	services, warnings := ParseSystemdShow(text, evidence.Ref("evidence/systemctl_001.txt"))

	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d (warnings: %v)", len(services), warnings)
	}
	if services[0].Name != "myapp.service" || services[0].PIDRefs[0] != 101 {
		t.Fatalf("unexpected first service: %+v", services[0])
	}
	if len(services[0].EnvFilePaths) != 1 || services[0].EnvFilePaths[0] != "/etc/myapp/env" {
		t.Fatalf("expected one env file path, got %v", services[0].EnvFilePaths)
	}

	set := &Set{Services: services}
	canonical := set.CanonicalServiceForPID()
	if canonical[101] != "myapp.service" {
		t.Fatalf("expected lexicographically-first service name to win ambiguous MainPID, got %q", canonical[101])
	}
	if len(set.Warnings) != 1 || !strings.Contains(set.Warnings[0], "ambiguous_main_pid") {
		t.Fatalf("expected an ambiguous_main_pid warning, got %v", set.Warnings)
	}
}

func TestParseSystemdShow_SkipsBlockWithoutId(t *testing.T) {
	text := "MainPID=5\nActiveState=active\n"
	services, warnings := ParseSystemdShow(text, evidence.Ref("evidence/systemctl_001.txt"))
	if len(services) != 0 {
		t.Fatalf("expected 0 services, got %d", len(services))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestParseEnvironNames(t *testing.T) {
	text := "PATH=/usr/bin:/bin\nDATABASE_URL=postgres://user:pass@db:5432/app\nAPI_KEY=supersecret\n"
	names := ParseEnvironNames(text)
	if len(names) != 3 {
		t.Fatalf("expected 3 names, got %v", names)
	}
	for _, n := range names {
		if strings.Contains(n, "secret") || strings.Contains(n, "postgres://") {
			t.Fatalf("env value leaked into name list: %q", n)
		}
	}
	if names[1] != "DATABASE_URL" {
		t.Fatalf("expected DATABASE_URL, got %q", names[1])
	}
}

func TestParsePackagesDpkg(t *testing.T) {
	text := "nginx 1.18.0-6ubuntu14\npostgresql-14 14.9-0ubuntu0\nmalformed\n"
	pkgs, warnings := ParsePackagesDpkg(text, evidence.Ref("evidence/dpkg_001.txt"))
	if len(pkgs) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(pkgs))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if pkgs[0].Source != SourceDpkg {
		t.Fatalf("expected dpkg source, got %q", pkgs[0].Source)
	}
}

func TestParsePackagesRPM(t *testing.T) {
	text := "httpd 2.4.57-1\nmalformed line here too many fields\n"
	pkgs, warnings := ParsePackagesRPM(text, evidence.Ref("evidence/rpm_001.txt"))
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}
