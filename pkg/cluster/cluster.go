package cluster

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fredericcarre/xcprobe/pkg/facts"
	"github.com/fredericcarre/xcprobe/pkg/scorer"
)

// scriptRuntimes are interpreter basenames whose first non-flag argument
// names the application better than the interpreter itself does — every
// node app starts with "node", so the cluster name needs the script.
var scriptRuntimes = map[string]bool{
	"node": true, "nodejs": true,
	"python": true, "python2": true, "python3": true,
	"ruby": true, "perl": true, "php": true,
}

var httpPorts = map[int]bool{80: true, 8080: true, 3000: true, 5000: true, 8000: true, 8443: true}
var dbPorts = map[int]bool{5432: true, 3306: true, 27017: true, 1433: true}
var cachePorts = map[int]bool{6379: true, 11211: true}
var queuePorts = map[int]bool{5672: true, 4222: true, 9092: true}

// DefaultPrefix is the cluster id prefix ("<prefix>-<n>") used when none is
// given; the prefix is configurable per Analyzer.Options.
const DefaultPrefix = "app"

// Build partitions the business processes in set (score >= scorer.BusinessThreshold)
// into Clusters using the four equivalence signals from the spec: same
// service name, same non-empty working directory, same EnvironmentFile
// path, and parent/child pairs that both cross the business threshold.
// Results are returned in stable traversal order (ascending pid of each
// cluster's first member), with dense ids "<prefix>-0", "<prefix>-1", ...
func Build(set *facts.Set, prefix string) []Cluster {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	results := scorer.ScoreAll(set)
	resultByPID := make(map[int]scorer.Result, len(results))
	for _, r := range results {
		resultByPID[r.PID] = r
	}

	var business []facts.Process
	for _, p := range set.Processes {
		if resultByPID[p.PID].Business {
			business = append(business, p)
		}
	}
	sort.Slice(business, func(i, j int) bool { return business[i].PID < business[j].PID })

	n := len(business)
	uf := newUnionFind(n)

	serviceNameForPID := serviceNameIndex(set)
	envFileForPID := envFileIndex(set)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pi, pj := business[i], business[j]

			if name, ok := serviceNameForPID[pi.PID]; ok {
				if name2, ok2 := serviceNameForPID[pj.PID]; ok2 && name == name2 {
					uf.union(i, j)
					continue
				}
			}
			if pi.Cwd != "" && pi.Cwd == pj.Cwd {
				uf.union(i, j)
				continue
			}
			if files, ok := envFileForPID[pi.PID]; ok {
				if files2, ok2 := envFileForPID[pj.PID]; ok2 && sharesAny(files, files2) {
					uf.union(i, j)
					continue
				}
			}
			if isParentChild(pi, pj) {
				uf.union(i, j)
				continue
			}
		}
	}

	return assembleClusters(set, business, uf, resultByPID, serviceNameForPID, prefix)
}

func isParentChild(a, b facts.Process) bool {
	return a.PPID == b.PID || b.PPID == a.PID
}

func sharesAny(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, y := range b {
		if set[y] {
			return true
		}
	}
	return false
}

// serviceNameIndex maps a pid to the name of one service whose PIDRefs
// contains it. When more than one service claims a pid, the name that
// sorts first is used, the same canonical owner that
// facts.Set.CanonicalServiceForPID picks (without recording its warning).
func serviceNameIndex(set *facts.Set) map[int]string {
	idx := make(map[int]string)
	for _, svc := range set.Services {
		for _, pid := range svc.PIDRefs {
			if existing, exists := idx[pid]; !exists || svc.Name < existing {
				idx[pid] = svc.Name
			}
		}
	}
	return idx
}

func envFileIndex(set *facts.Set) map[int][]string {
	idx := make(map[int][]string)
	for _, svc := range set.Services {
		for _, pid := range svc.PIDRefs {
			idx[pid] = append(idx[pid], svc.EnvFilePaths...)
		}
	}
	return idx
}

func assembleClusters(
	set *facts.Set,
	business []facts.Process,
	uf *unionFind,
	resultByPID map[int]scorer.Result,
	serviceNameForPID map[int]string,
	prefix string,
) []Cluster {
	n := len(business)
	rootOrder := make([]int, 0)
	seenRoot := make(map[int]bool)
	members := make(map[int][]int) // root -> indices into business, in pid order

	for i := 0; i < n; i++ {
		root := uf.find(i)
		if !seenRoot[root] {
			seenRoot[root] = true
			rootOrder = append(rootOrder, root)
		}
		members[root] = append(members[root], i)
	}

	clusters := make([]Cluster, 0, len(rootOrder))
	for ci, root := range rootOrder {
		idxs := members[root]
		var pids []int
		var cmdlineBasenames []string
		var cmdlines []string
		var serviceNames []string
		serviceSeen := make(map[string]bool)
		var decisions []scorer.Decision
		var envNames []string
		var ports []facts.PortBinding

		for _, idx := range idxs {
			proc := business[idx]
			pids = append(pids, proc.PID)
			cmdlineBasenames = append(cmdlineBasenames, proc.Basename())
			cmdlines = append(cmdlines, strings.Join(proc.Cmdline, " "))
			envNames = append(envNames, proc.EnvNames...)
			ports = append(ports, set.PortsForPID(proc.PID)...)
			decisions = append(decisions, resultByPID[proc.PID].Decisions...)
			if name, ok := serviceNameForPID[proc.PID]; ok && !serviceSeen[name] {
				serviceSeen[name] = true
				serviceNames = append(serviceNames, name)
			}
		}
		sort.Ints(pids)
		sort.Strings(serviceNames)
		sort.Strings(envNames)
		envNames = dedupe(envNames)

		name := nameCluster(serviceNames, cmdlineBasenames, cmdlines)
		appType := classifyAppType(set, ports, cmdlineBasenames, cmdlines, serviceNames)

		clusters = append(clusters, Cluster{
			ID:           fmt.Sprintf("%s-%d", prefix, ci),
			Name:         name,
			AppType:      appType,
			ProcessPIDs:  pids,
			ServiceNames: serviceNames,
			Ports:        ports,
			EnvNames:     envNames,
			Decisions:    decisions,
		})
	}
	return clusters
}

func dedupe(sorted []string) []string {
	out := sorted[:0:0]
	var prev string
	first := true
	for _, s := range sorted {
		if first || s != prev {
			out = append(out, s)
			prev = s
			first = false
		}
	}
	return out
}

func nameCluster(serviceNames, cmdlineBasenames, cmdlines []string) string {
	if len(serviceNames) == 1 {
		return stripUnitSuffix(serviceNames[0])
	}
	if names := scriptBasenames(cmdlines); len(names) > 0 {
		return mostFrequent(names)
	}
	if len(cmdlineBasenames) > 0 {
		return mostFrequent(cmdlineBasenames)
	}
	return "app"
}

// stripUnitSuffix drops a systemd unit's type suffix so a cluster named
// after its owning unit reads as "api", not "api.service".
func stripUnitSuffix(unit string) string {
	return strings.TrimSuffix(strings.TrimSuffix(unit, ".service"), ".timer")
}

// scriptBasenames extracts, for every cmdline run under a known script
// runtime, the basename of the first non-flag argument: "node
// /app/server.js" names itself "server.js", not "node".
func scriptBasenames(cmdlines []string) []string {
	var names []string
	for _, cl := range cmdlines {
		fields := strings.Fields(cl)
		if len(fields) < 2 {
			continue
		}
		if !scriptRuntimes[filepath.Base(fields[0])] {
			continue
		}
		for _, arg := range fields[1:] {
			if strings.HasPrefix(arg, "-") {
				continue
			}
			names = append(names, filepath.Base(arg))
			break
		}
	}
	return names
}

func mostFrequent(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best := values[0]
	bestCount := 0
	// iterate in original order so ties resolve to the first-seen value,
	// keeping the result deterministic regardless of map iteration.
	seen := make(map[string]bool)
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

func classifyAppType(set *facts.Set, ports []facts.PortBinding, cmdlineBasenames, cmdlines, serviceNames []string) AppType {
	cmdline := strings.Join(cmdlineBasenames, " ")

	for _, p := range ports {
		if httpPorts[p.Port] {
			if strings.Contains(cmdline, "nginx") || strings.Contains(cmdline, "httpd") || strings.Contains(cmdline, "apache") {
				return AppTypeWeb
			}
			return AppTypeAPI
		}
	}
	for _, p := range ports {
		if dbPorts[p.Port] {
			return AppTypeDB
		}
	}
	for _, p := range ports {
		if cachePorts[p.Port] {
			return AppTypeCache
		}
	}
	for _, p := range ports {
		if queuePorts[p.Port] {
			return AppTypeQueue
		}
	}
	if len(ports) == 0 && isBatchLike(set, serviceNames, cmdlineBasenames, cmdlines) {
		return AppTypeBatch
	}
	return AppTypeOther
}

// isBatchLike recognizes a cron/timer-driven application: no listening
// port, and either one of its own services is named like a timer unit, or
// some other timer/cron unit in the full fact set shares a cmdline with
// one of this cluster's processes (the common case: a *.timer unit
// triggers a oneshot job that is itself a bare process, never a service
// with a MainPID).
func isBatchLike(set *facts.Set, serviceNames, cmdlineBasenames, cmdlines []string) bool {
	for _, name := range serviceNames {
		if isTimerLikeName(name) {
			return true
		}
	}
	for _, b := range cmdlineBasenames {
		if b == "cron" || b == "crond" {
			return true
		}
	}
	for _, svc := range set.Services {
		if !isTimerLikeName(svc.Name) {
			continue
		}
		for _, cl := range cmdlines {
			if svc.ExecStart != "" && strings.Contains(cl, svc.ExecStart) {
				return true
			}
		}
	}
	return false
}

func isTimerLikeName(name string) bool {
	return strings.HasSuffix(name, ".timer") || strings.Contains(name, "cron")
}
