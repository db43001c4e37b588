// Package dag collapses parallel dependency edges, breaks cycles
// deterministically, computes a topological startup order, and aggregates
// per-cluster confidence from each cluster's decisions.
package dag
