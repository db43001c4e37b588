package facts

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

// ParseProcessesWindows parses CSV rows from a WMI Win32_Process query
// (ProcessId,ParentProcessId,CreationDate,CommandLine), one process per
// line, fields separated by "|" to avoid clashing with comma-bearing
// command lines.
//
//	1234|1|2024-01-01T00:00:00Z|C:\nginx\nginx.exe -c C:\nginx\conf\nginx.conf
func ParseProcessesWindows(text string, ref evidence.Ref) ([]Process, []string) {
	var procs []Process
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "ProcessId") {
			continue
		}
		fields := strings.SplitN(line, "|", 4)
		if len(fields) < 4 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed process line: %q", line))
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			warnings = append(warnings, fmt.Sprintf("skipped process line with non-numeric pid/ppid: %q", line))
			continue
		}
		started, _ := time.Parse(time.RFC3339, fields[2])

		procs = append(procs, Process{
			PID:         pid,
			PPID:        ppid,
			User:        "",
			StartTime:   started,
			Cmdline:     TokenizeWindows(fields[3]),
			EvidenceRef: ref,
		})
	}
	return procs, warnings
}

// ParseServicesWindows parses CSV rows from a WMI Win32_Service query
// (Name,State,ProcessId,PathName,StartName), "|"-delimited.
//
//	MyApp|Running|1234|C:\app\myapp.exe --config C:\app\config.yaml|LocalSystem
func ParseServicesWindows(text string, ref evidence.Ref) ([]Service, []string) {
	var services []Service
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Name|") {
			continue
		}
		fields := strings.SplitN(line, "|", 5)
		if len(fields) < 5 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed service line: %q", line))
			continue
		}
		var pidRefs []int
		if pid, err := strconv.Atoi(fields[2]); err == nil && pid > 0 {
			pidRefs = append(pidRefs, pid)
		}
		services = append(services, Service{
			Name:        fields[0],
			Manager:     ManagerWindows,
			ExecStart:   fields[3],
			User:        fields[4],
			State:       fields[1],
			PIDRefs:     pidRefs,
			EvidenceRef: ref,
		})
	}
	return services, warnings
}

// ParsePortsWindows parses "netstat -ano"-style TCP listening lines:
//
//	TCP    0.0.0.0:8080       0.0.0.0:0              LISTENING       1234
func ParsePortsWindows(text string, ref evidence.Ref) ([]PortBinding, []string) {
	var bindings []PortBinding
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Proto") || strings.HasPrefix(line, "Active") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		addr, portStr, ok := splitHostPort(fields[1])
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped malformed netstat line: %q", line))
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped netstat line with non-numeric port: %q", line))
			continue
		}
		pid := 0
		if len(fields) >= 5 {
			pid, _ = strconv.Atoi(fields[4])
		}
		bindings = append(bindings, PortBinding{
			Protocol:    ProtocolTCP,
			Address:     addr,
			Port:        port,
			PID:         pid,
			EvidenceRef: ref,
		})
	}
	return bindings, warnings
}

// splitHostPort splits a "host:port" token on the last colon, tolerating
// bracket-free IPv6 forms that netstat never actually emits but a hostile
// fixture might.
func splitHostPort(s string) (host, port string, ok bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// ParsePackagesWindows parses CSV rows from a Win32_Product / registry
// uninstall-key query (Name,Version), "|"-delimited.
func ParsePackagesWindows(text string, ref evidence.Ref) ([]Package, []string) {
	var pkgs []Package
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "|", 2)
		if len(fields) != 2 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed package line: %q", line))
			continue
		}
		pkgs = append(pkgs, Package{Name: fields[0], Version: fields[1], Source: SourceWindows, EvidenceRef: ref})
	}
	return pkgs, warnings
}
