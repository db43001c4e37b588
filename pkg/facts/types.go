package facts

import (
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

// ServiceManager identifies the process supervisor that owns a Service.
type ServiceManager string

const (
	ManagerSystemd ServiceManager = "systemd"
	ManagerWindows ServiceManager = "windows"
)

// PackageSource identifies the package manager a Package was reported by.
type PackageSource string

const (
	SourceDpkg    PackageSource = "dpkg"
	SourceRPM     PackageSource = "rpm"
	SourceWindows PackageSource = "windows"
)

// Protocol is a transport-layer protocol for a PortBinding.
type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// Process is a parsed, normalized process observation. Env values are never
// retained — only the names referenced by the process's environment.
type Process struct {
	PID         int           `json:"pid"`
	PPID        int           `json:"ppid"`
	User        string        `json:"user"`
	StartTime   time.Time     `json:"start_time"`
	Elapsed     time.Duration `json:"elapsed"`
	Cmdline     []string      `json:"cmdline"`
	Cwd         string        `json:"cwd,omitempty"`
	EnvNames    []string      `json:"env_names"`
	EvidenceRef evidence.Ref  `json:"evidence_ref"`
}

// Basename returns the basename of the process's first cmdline token, the
// value every scoring and clustering rule matches against.
func (p Process) Basename() string {
	if len(p.Cmdline) == 0 {
		return ""
	}
	return baseOf(p.Cmdline[0])
}

// Service is a parsed systemd unit or Windows service. PIDRefs links into
// the Process set by PID; multiple candidates are linked when the manager
// reports more than one (see correlate.go).
type Service struct {
	Name             string         `json:"name"`
	Manager          ServiceManager `json:"manager"`
	UnitFilePath     string         `json:"unit_file_path,omitempty"`
	ExecStart        string         `json:"exec_start"`
	WorkingDirectory string         `json:"working_directory,omitempty"`
	User             string         `json:"user,omitempty"`
	EnvFilePaths     []string       `json:"env_file_paths"`
	State            string         `json:"state"`
	PIDRefs          []int          `json:"pid_refs"`
	EvidenceRef      evidence.Ref   `json:"evidence_ref"`
}

// PortBinding is a single listening or bound network socket.
type PortBinding struct {
	Protocol    Protocol     `json:"protocol"`
	Address     string       `json:"address"`
	Port        int          `json:"port"`
	PID         int          `json:"pid,omitempty"`
	EvidenceRef evidence.Ref `json:"evidence_ref"`
}

// Package is an installed software package reported by the host's package
// manager.
type Package struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Source      PackageSource `json:"source"`
	EvidenceRef evidence.Ref  `json:"evidence_ref"`
}

// ConfigSnippet is a redacted excerpt of a configuration file referenced by
// a service's EnvironmentFile or working directory scan.
type ConfigSnippet struct {
	OriginalPath    string                `json:"original_path"`
	RedactedBytes   []byte                `json:"-"`
	RedactedText    string                `json:"redacted_text"`
	Size            int                   `json:"size"`
	Truncated       bool                  `json:"truncated"`
	RedactionReport RedactionReportFields `json:"redaction_report"`
}

// RedactionReportFields mirrors redact.Report's JSON shape without importing
// pkg/redact, keeping the facts package free of a dependency it otherwise
// wouldn't need.
type RedactionReportFields struct {
	Replacements int            `json:"replacements"`
	PatternsHit  map[string]int `json:"patterns_hit"`
	EntropyHits  int            `json:"entropy_hits"`
}

// MaxConfigSnippetBytes is the config snippet size limit (1 MiB). No code
// in this module applies it: the collect command captures no config
// snippets, and nothing truncates a snippet or sets Truncated.
const MaxConfigSnippetBytes = 1 * 1024 * 1024

// Set is the full parsed fact model for a single bundle, held immutably in
// memory for the lifetime of an analysis run.
type Set struct {
	Processes []Process       `json:"processes"`
	Services  []Service       `json:"services"`
	Ports     []PortBinding   `json:"ports"`
	Packages  []Package       `json:"packages"`
	Configs   []ConfigSnippet `json:"configs"`

	// Warnings collects non-fatal parsing anomalies (skipped malformed
	// lines, ambiguous MainPID ties) surfaced to the caller but never
	// treated as fatal: parsing is total.
	Warnings []string `json:"warnings,omitempty"`
}

// ProcessByPID returns the process with the given pid, if present.
func (s *Set) ProcessByPID(pid int) (Process, bool) {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p, true
		}
	}
	return Process{}, false
}

// PortsForPID returns every PortBinding bound to pid.
func (s *Set) PortsForPID(pid int) []PortBinding {
	var out []PortBinding
	for _, pb := range s.Ports {
		if pb.PID == pid {
			out = append(out, pb)
		}
	}
	return out
}
