// Package scorer computes a bounded business-relevance score for each
// observed process from independent signed signals, and records one
// Decision per signal that fired so the verdict stays traceable to the
// evidence that produced it.
package scorer

import (
	"fmt"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
)

// BusinessThreshold is the minimum score a process must reach to be
// considered a business application rather than host/system noise.
const BusinessThreshold = 0.6

// frameworkBasenames are cmdline first-token basenames strongly associated
// with business application runtimes.
var frameworkBasenames = map[string]bool{
	"node": true, "python": true, "python3": true, "java": true,
	"dotnet": true, "ruby": true, "php-fpm": true, "gunicorn": true,
	"uvicorn": true, "nginx": true, "httpd": true, "postgres": true,
	"mysqld": true, "mongod": true, "redis-server": true,
}

// noiseBasenames are cmdline first-token basenames (or prefixes, see
// isNoiseBasename) strongly associated with kernel threads and host
// service-manager helpers rather than business applications.
var noiseBasenamePrefixes = []string{"kworker/", "ksoftirqd/", "migration/", "rcu_", "systemd-"}
var noiseBasenamesExact = map[string]bool{
	"svchost": true, "dwm": true, "csrss": true, "lsass": true,
}

func isNoiseBasename(basename string) bool {
	if noiseBasenamesExact[basename] {
		return true
	}
	if basename == "systemd" {
		// "systemd" itself (pid 1, the init process) is not noise by name;
		// the ppid==0/pid==1 signal covers it separately. Only systemd-*
		// helper units count as noise here.
		return false
	}
	for _, prefix := range noiseBasenamePrefixes {
		if len(basename) >= len(prefix) && basename[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func isPrivilegedUser(user string) bool {
	return user == "root" || user == "SYSTEM" || user == "LocalService" || user == ""
}

// Decision is a single signal's contribution to a process's score, with
// enough evidence context for a reader to audit the verdict.
type Decision struct {
	Decision     string         `json:"decision"`
	Confidence   float64        `json:"confidence"`
	HasEvidence  bool           `json:"has_evidence"`
	EvidenceRefs []evidence.Ref `json:"evidence_refs"`
	Weight       float64        `json:"weight"`
}

func newDecision(text string, confidence float64, refs []evidence.Ref) Decision {
	weight := 0.5
	if len(refs) > 0 {
		weight = 1.0
	}
	return Decision{
		Decision:     text,
		Confidence:   confidence,
		HasEvidence:  len(refs) > 0,
		EvidenceRefs: refs,
		Weight:       weight,
	}
}

// Result is a process's scoring outcome: its bounded score, whether it
// crosses BusinessThreshold, and the decisions that produced the score.
type Result struct {
	PID       int        `json:"pid"`
	Score     float64    `json:"score"`
	Business  bool       `json:"business"`
	Decisions []Decision `json:"decisions"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Score computes the business-relevance score of a single process against
// the full fact set it was observed in. canonicalService maps pid to the
// service name that owns it as MainPID (see facts.Set.CanonicalServiceForPID),
// used for the MainPID/active-unit signal.
func Score(proc facts.Process, set *facts.Set, canonicalService map[int]string) Result {
	var decisions []Decision
	raw := 0.0

	basename := proc.Basename()

	if frameworkBasenames[basename] {
		raw += 0.30
		decisions = append(decisions, newDecision(
			fmt.Sprintf("cmdline basename %q matches a known application runtime", basename),
			0.90, []evidence.Ref{proc.EvidenceRef}))
	}

	if ports := set.PortsForPID(proc.PID); len(ports) > 0 {
		raw += 0.20
		var refs []evidence.Ref
		for _, p := range ports {
			refs = append(refs, p.EvidenceRef)
		}
		decisions = append(decisions, newDecision(
			fmt.Sprintf("pid %d is bound to %d listening port(s)", proc.PID, len(ports)),
			0.85, refs))
	}

	if svc, owning, ok := mainPIDService(proc.PID, set, canonicalService); ok {
		raw += 0.30
		decisions = append(decisions, newDecision(
			fmt.Sprintf("pid %d is the MainPID of active unit %q", proc.PID, owning),
			0.95, []evidence.Ref{svc.EvidenceRef}))
	}

	if !isPrivilegedUser(proc.User) {
		raw += 0.10
		decisions = append(decisions, newDecision(
			fmt.Sprintf("process runs as non-privileged user %q", proc.User),
			0.50, []evidence.Ref{proc.EvidenceRef}))
	}

	if isNoiseBasename(basename) {
		raw -= 0.40
		decisions = append(decisions, newDecision(
			fmt.Sprintf("cmdline basename %q matches a known host/kernel-noise pattern", basename),
			0.90, []evidence.Ref{proc.EvidenceRef}))
	}

	if proc.PPID == 0 || proc.PID == 1 {
		raw -= 0.20
		decisions = append(decisions, newDecision(
			fmt.Sprintf("pid %d has ppid==0 or pid==1, characteristic of an init/root process", proc.PID),
			0.95, []evidence.Ref{proc.EvidenceRef}))
	}

	score := clamp01(0.5 + raw)
	return Result{
		PID:       proc.PID,
		Score:     score,
		Business:  score >= BusinessThreshold,
		Decisions: decisions,
	}
}

// mainPIDService finds the service that claims pid as its canonical
// MainPID/ProcessId and reports it as active/running.
func mainPIDService(pid int, set *facts.Set, canonicalService map[int]string) (facts.Service, string, bool) {
	name, ok := canonicalService[pid]
	if !ok {
		return facts.Service{}, "", false
	}
	for _, svc := range set.Services {
		if svc.Name != name {
			continue
		}
		if !isActiveState(svc.State) {
			return facts.Service{}, "", false
		}
		return svc, svc.Name, true
	}
	return facts.Service{}, "", false
}

func isActiveState(state string) bool {
	return state == "active" || state == "Running" || state == "running"
}

// ScoreAll scores every process in set, using set.CanonicalServiceForPID()
// for MainPID resolution.
func ScoreAll(set *facts.Set) []Result {
	canonical := set.CanonicalServiceForPID()
	results := make([]Result, 0, len(set.Processes))
	for _, proc := range set.Processes {
		results = append(results, Score(proc, set, canonical))
	}
	return results
}
