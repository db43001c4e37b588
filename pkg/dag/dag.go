package dag

import (
	"fmt"
	"sort"

	"github.com/fredericcarre/xcprobe/pkg/cluster"
	"github.com/fredericcarre/xcprobe/pkg/dependency"
	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/scorer"
)

// Result is the fully resolved DAG: collapsed edges, a valid topological
// startup order, and the warnings surfaced along the way (cycle breaks,
// clusters with no supporting decisions).
type Result struct {
	Edges        []dependency.Edge
	StartupOrder []string
	Warnings     []string
}

// Build collapses parallel edges between the same (from, to) pair,
// deterministically breaks any cycles, and computes a topological
// startup order via Kahn's algorithm with lexicographic cluster-id
// tie-breaking.
func Build(edges []dependency.Edge, clusterIDs []string) Result {
	collapsed := collapseParallel(edges)
	dependency.SortEdges(collapsed)

	acyclic, warnings := breakCycles(collapsed, clusterIDs)

	order := topologicalOrder(acyclic, clusterIDs)

	return Result{Edges: acyclic, StartupOrder: order, Warnings: warnings}
}

// collapseParallel merges every edge sharing a (from, to) pair into one,
// unioning dep_types is not representable by the single-DepType Edge
// struct, so the first-seen dep_type is kept and every evidence_ref across
// the parallel set is unioned — in practice the detector rarely emits more
// than one dep_type for a given pair, since dep_type is scheme-derived.
func collapseParallel(edges []dependency.Edge) []dependency.Edge {
	type key struct{ from, to string }
	order := make([]key, 0)
	byKey := make(map[key]*dependency.Edge)

	for _, e := range edges {
		k := key{e.From, e.To}
		existing, ok := byKey[k]
		if !ok {
			ec := e
			byKey[k] = &ec
			order = append(order, k)
			continue
		}
		existing.EvidenceRefs = unionRefs(existing.EvidenceRefs, e.EvidenceRefs)
	}

	out := make([]dependency.Edge, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

func unionRefs(a, b []evidence.Ref) []evidence.Ref {
	seen := make(map[evidence.Ref]bool, len(a))
	out := append([]evidence.Ref(nil), a...)
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// breakCycles removes edges participating in a cycle, one at a time,
// highest-indexed first in the (from_id, to_id, dep_type) order, until no
// cycle remains. Every removal is recorded as a "cycle_broken" warning.
func breakCycles(edges []dependency.Edge, clusterIDs []string) ([]dependency.Edge, []string) {
	var warnings []string
	remaining := append([]dependency.Edge(nil), edges...)

	for {
		cyclePath, cycleEdgeIdx := findCycleEdge(remaining, clusterIDs)
		if cycleEdgeIdx < 0 {
			break
		}
		removed := remaining[cycleEdgeIdx]
		remaining = append(remaining[:cycleEdgeIdx], remaining[cycleEdgeIdx+1:]...)
		warnings = append(warnings, fmt.Sprintf(
			"cycle_broken: removed edge %s -> %s (%s) to break a cycle: %v",
			removed.From, removed.To, removed.DepType, cyclePath))
	}
	return remaining, warnings
}

// findCycleEdge detects whether remaining contains a cycle via DFS, and if
// so returns the path found and the index (within remaining, already
// sorted by (from,to,dep_type)) of the highest-indexed edge on that cycle
// — the one to remove for deterministic, reproducible breaking.
func findCycleEdge(edges []dependency.Edge, clusterIDs []string) ([]string, int) {
	adj := make(map[string][]int) // cluster id -> indices into edges
	for i, e := range edges {
		adj[e.From] = append(adj[e.From], i)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(clusterIDs))
	for _, id := range clusterIDs {
		color[id] = white
	}

	var cyclePath []string
	cycleEdgeIdx := -1
	// cycleStart is the node the back-edge returns to; once the unwinding
	// reaches it (closed), the remaining ancestors lead into the cycle but
	// are not on it.
	cycleStart := ""
	closed := false

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, idx := range adj[node] {
			e := edges[idx]
			if color[e.To] == gray {
				cyclePath = []string{e.From, e.To}
				cycleEdgeIdx = idx
				cycleStart = e.To
				closed = e.From == cycleStart
				return true
			}
			if color[e.To] == white {
				if visit(e.To) {
					if !closed {
						if cycleEdgeIdx < idx {
							cycleEdgeIdx = idx
						}
						cyclePath = append([]string{node}, cyclePath...)
						closed = node == cycleStart
					}
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	sortedIDs := append([]string(nil), clusterIDs...)
	sort.Strings(sortedIDs)
	for _, id := range sortedIDs {
		if color[id] == white {
			if visit(id) {
				return cyclePath, cycleEdgeIdx
			}
		}
	}
	return nil, -1
}

// topologicalOrder runs Kahn's algorithm over edges restricted to
// clusterIDs, breaking ties by lexicographic cluster id order so the
// result is deterministic regardless of edge discovery order. An edge
// From->To means From depends on To, so a dependency must start before
// its dependent: the algorithm walks the reversed graph (To -> From).
func topologicalOrder(edges []dependency.Edge, clusterIDs []string) []string {
	inDegree := make(map[string]int, len(clusterIDs))
	adj := make(map[string][]string)
	for _, id := range clusterIDs {
		inDegree[id] = 0
	}
	for _, e := range edges {
		adj[e.To] = append(adj[e.To], e.From)
		inDegree[e.From]++
	}

	ready := make([]string, 0)
	for _, id := range clusterIDs {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		targets := append([]string(nil), adj[next]...)
		sort.Strings(targets)
		for _, to := range targets {
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return order
}

// Confidence computes a cluster's aggregate confidence from its decisions:
// Σ(d.confidence × d.weight) / Σd.weight, or 0.0 with a "no_decisions"
// warning when the cluster has none.
func Confidence(decisions []scorer.Decision) (float64, []string) {
	if len(decisions) == 0 {
		return 0.0, []string{"no_decisions"}
	}
	var numerator, denominator float64
	for _, d := range decisions {
		numerator += d.Confidence * d.Weight
		denominator += d.Weight
	}
	if denominator == 0 {
		return 0.0, []string{"no_decisions"}
	}
	return numerator / denominator, nil
}

// ClusterNames extracts the cluster id list used for topological ordering
// and cycle detection from a cluster slice, in the slice's order (both
// consumers sort the ids themselves).
func ClusterNames(clusters []cluster.Cluster) []string {
	ids := make([]string, 0, len(clusters))
	for _, c := range clusters {
		ids = append(ids, c.ID)
	}
	return ids
}
