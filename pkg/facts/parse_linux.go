package facts

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

// ParseProcessesLinux parses the output of a "pid ppid user started elapsed
// cmd" listing (the collector's ps invocation), one process per line, space
// separated with cmd free-form to end of line. Malformed lines are skipped
// and reported as warnings, never fatal.
//
//	101 1 api 2024-01-01T00:00:00Z 12:03:41 python3 /opt/api/app.py --port 8080
func ParseProcessesLinux(text string, ref evidence.Ref) ([]Process, []string) {
	var procs []Process
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 6)
		if len(fields) < 6 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed process line: %q", line))
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			warnings = append(warnings, fmt.Sprintf("skipped process line with non-numeric pid/ppid: %q", line))
			continue
		}
		started, _ := time.Parse(time.RFC3339, fields[3])
		elapsed := parseElapsed(fields[4])

		procs = append(procs, Process{
			PID:         pid,
			PPID:        ppid,
			User:        fields[2],
			StartTime:   started,
			Elapsed:     elapsed,
			Cmdline:     TokenizePosix(fields[5]),
			EvidenceRef: ref,
		})
	}
	return procs, warnings
}

// parseElapsed parses an "HH:MM:SS" or "D-HH:MM:SS" elapsed-time field from
// ps output into a time.Duration.
func parseElapsed(s string) time.Duration {
	days := 0
	if i := strings.Index(s, "-"); i >= 0 {
		days, _ = strconv.Atoi(s[:i])
		s = s[i+1:]
	}
	parts := strings.Split(s, ":")
	var h, m, sec int
	switch len(parts) {
	case 3:
		h, _ = strconv.Atoi(parts[0])
		m, _ = strconv.Atoi(parts[1])
		sec, _ = strconv.Atoi(parts[2])
	case 2:
		m, _ = strconv.Atoi(parts[0])
		sec, _ = strconv.Atoi(parts[1])
	default:
		return 0
	}
	return time.Duration(days)*24*time.Hour + time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

// ssListenLine matches a single "ss -lntup"-style listening-socket line:
// proto, local address:port, and an optional pid=N token.
var ssListenLine = regexp.MustCompile(`(?i)^(tcp|udp)\s+LISTEN\s+\S+\s+\S+\s+(\S+):(\d+)\s+\S+(?:.*pid=(\d+))?`)

// ParsePortsLinux parses "ss -lntup"-style output into PortBindings.
func ParsePortsLinux(text string, ref evidence.Ref) ([]PortBinding, []string) {
	var bindings []PortBinding
	var warnings []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Netid") || strings.HasPrefix(line, "State") {
			continue
		}
		m := ssListenLine.FindStringSubmatch(line)
		if m == nil {
			warnings = append(warnings, fmt.Sprintf("skipped unrecognized port line: %q", line))
			continue
		}
		port, err := strconv.Atoi(m[3])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped port line with non-numeric port: %q", line))
			continue
		}
		pid := 0
		if m[4] != "" {
			pid, _ = strconv.Atoi(m[4])
		}
		bindings = append(bindings, PortBinding{
			Protocol:    Protocol(strings.ToLower(m[1])),
			Address:     m[2],
			Port:        port,
			PID:         pid,
			EvidenceRef: ref,
		})
	}
	return bindings, warnings
}

// ParseSystemdShow parses the concatenated "systemctl show <unit>" output
// for every unit the collector enumerated, units separated by a blank line,
// each property on its own "Key=Value" line.
func ParseSystemdShow(text string, ref evidence.Ref) ([]Service, []string) {
	var services []Service
	var warnings []string

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		props := make(map[string]string)
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			kv := strings.SplitN(line, "=", 2)
			if len(kv) != 2 {
				warnings = append(warnings, fmt.Sprintf("skipped malformed systemctl show line: %q", line))
				continue
			}
			props[kv[0]] = kv[1]
		}
		name := props["Id"]
		if name == "" {
			warnings = append(warnings, "skipped systemctl show block with no Id=")
			continue
		}

		var pidRefs []int
		if mainPID, err := strconv.Atoi(props["MainPID"]); err == nil && mainPID > 0 {
			pidRefs = append(pidRefs, mainPID)
		}

		var envFiles []string
		if v := props["EnvironmentFile"]; v != "" {
			for _, f := range strings.Fields(v) {
				envFiles = append(envFiles, strings.TrimSuffix(f, " (ignore_errors=no)"))
			}
		}

		services = append(services, Service{
			Name:             name,
			Manager:          ManagerSystemd,
			UnitFilePath:     props["FragmentPath"],
			ExecStart:        props["ExecStart"],
			WorkingDirectory: props["WorkingDirectory"],
			User:             props["User"],
			EnvFilePaths:     envFiles,
			State:            props["ActiveState"],
			PIDRefs:          pidRefs,
			EvidenceRef:      ref,
		})
	}
	return services, warnings
}

// envNameLine matches a single "KEY=value" environment line; only KEY is
// kept, the value is discarded at the parser boundary.
var envNameLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=`)

// ParseEnvironNames extracts environment variable names (never values) from
// a process's /proc/<pid>/environ-equivalent dump, one "KEY=value" per line.
func ParseEnvironNames(text string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		m := envNameLine.FindStringSubmatch(scanner.Text())
		if m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// ParsePackagesDpkg parses "dpkg-query -W -f='${Package} ${Version}\n'"
// output.
func ParsePackagesDpkg(text string, ref evidence.Ref) ([]Package, []string) {
	var pkgs []Package
	var warnings []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed dpkg line: %q", line))
			continue
		}
		pkgs = append(pkgs, Package{Name: fields[0], Version: fields[1], Source: SourceDpkg, EvidenceRef: ref})
	}
	return pkgs, warnings
}

// ParsePackagesRPM parses "rpm -qa --qf '%{NAME} %{VERSION}-%{RELEASE}\n'"
// output.
func ParsePackagesRPM(text string, ref evidence.Ref) ([]Package, []string) {
	var pkgs []Package
	var warnings []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed rpm line: %q", line))
			continue
		}
		pkgs = append(pkgs, Package{Name: fields[0], Version: fields[1], Source: SourceRPM, EvidenceRef: ref})
	}
	return pkgs, warnings
}
