package facts

import (
	"fmt"
	"sort"
)

// CanonicalServiceForPID resolves service→process correlation by MainPID
// (systemd) / ProcessId (WMI). When two or more services claim the same
// pid — an ambiguity the source evidence cannot itself resolve — the
// service whose name sorts first lexicographically is chosen as the
// canonical owner, and the set records an "ambiguous_main_pid" warning.
// Every claiming service still keeps the pid in its own PIDRefs; this
// canonical mapping only matters where a single owner is required (the
// scorer's MainPID signal, the clusterer's same-service equivalence).
func (s *Set) CanonicalServiceForPID() map[int]string {
	claimants := make(map[int][]string)
	for _, svc := range s.Services {
		for _, pid := range svc.PIDRefs {
			claimants[pid] = append(claimants[pid], svc.Name)
		}
	}

	canonical := make(map[int]string, len(claimants))
	pids := make([]int, 0, len(claimants))
	for pid := range claimants {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	for _, pid := range pids {
		names := claimants[pid]
		sort.Strings(names)
		canonical[pid] = names[0]
		if len(names) > 1 {
			s.Warnings = append(s.Warnings, fmt.Sprintf(
				"ambiguous_main_pid: pid %d claimed by services %v, resolved to %q", pid, names, names[0]))
		}
	}
	return canonical
}
