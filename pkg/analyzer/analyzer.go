// Package analyzer orchestrates the offline analysis pipeline: it loads a
// sealed bundle, scores and clusters its processes into candidate
// applications, detects dependency edges between them, and emits the final
// pack plan. It never touches a live target; everything it reads comes from
// the bundle the collector sealed.
package analyzer

import (
	"fmt"
	"time"

	"github.com/fredericcarre/xcprobe/internal/factindex"
	"github.com/fredericcarre/xcprobe/pkg/bundle"
	"github.com/fredericcarre/xcprobe/pkg/cluster"
	"github.com/fredericcarre/xcprobe/pkg/dependency"
	"github.com/fredericcarre/xcprobe/pkg/facts"
	"github.com/fredericcarre/xcprobe/pkg/packplan"
	"github.com/fredericcarre/xcprobe/pkg/scorer"
)

// Options tunes the analysis pipeline. Zero-valued fields fall back to the
// package defaults, mirroring config.AnalyzerConfig.
type Options struct {
	ClusterPrefix  string
	MinConfidence  float64
	StrictEvidence bool
}

func (o Options) withDefaults() Options {
	if o.ClusterPrefix == "" {
		o.ClusterPrefix = cluster.DefaultPrefix
	}
	if o.MinConfidence == 0 {
		o.MinConfidence = 0.7
	}
	return o
}

// Analyze runs the full pipeline over an already-loaded bundle and returns
// the resulting pack plan. generatedAt is stamped on the plan as-is; a
// caller analyzing live data passes time.Now().UTC().
func Analyze(b *bundle.Bundle, opts Options, generatedAt time.Time) (*packplan.PackPlan, error) {
	opts = opts.withDefaults()
	set := &b.Manifest.Facts

	// cluster.Build runs scorer.ScoreAll internally and keeps only the
	// processes that cross the business threshold.
	clusters := cluster.Build(set, opts.ClusterPrefix)

	clusters, edges, extraDecisions := dependency.Detect(set, clusters, opts.ClusterPrefix)
	mergeDecisions(clusters, extraDecisions)

	if err := checkEvidence(b, clusters, opts.StrictEvidence); err != nil {
		return nil, err
	}
	if err := checkStalePIDs(set, clusters); err != nil {
		return nil, err
	}

	return packplan.Build(b.Digest, clusters, edges, opts.MinConfidence, generatedAt)
}

// checkStalePIDs cross-checks each cluster's process PIDs against the
// in-memory fact index, flagging a PID a cluster still references but that
// no longer shows up in the collected process table — stale membership
// left over from a process that exited between ps and ss collection.
func checkStalePIDs(set *facts.Set, clusters []cluster.Cluster) error {
	idx, err := factindex.Build(set)
	if err != nil {
		return fmt.Errorf("analyzer: build fact index: %w", err)
	}
	defer idx.Close()

	for i := range clusters {
		for _, pid := range clusters[i].ProcessPIDs {
			exists, err := idx.ProcessExists(pid)
			if err != nil {
				return fmt.Errorf("analyzer: check pid %d: %w", pid, err)
			}
			if !exists {
				clusters[i].Warnings = append(clusters[i].Warnings,
					fmt.Sprintf("stale_pid: %d no longer present in collected process table", pid))
			}
		}
	}
	return nil
}

// mergeDecisions folds the dependency detector's per-cluster Decisions
// (§4.7) into each cluster's existing Decisions slice, by cluster id, so
// the DAG builder's confidence formula (§4.8) sees every signal that
// contributed to the cluster, not just the scorer's.
func mergeDecisions(clusters []cluster.Cluster, extra map[string][]scorer.Decision) {
	for i := range clusters {
		if ds, ok := extra[clusters[i].ID]; ok {
			clusters[i].Decisions = append(clusters[i].Decisions, ds...)
		}
	}
}

// checkEvidence verifies every Decision's EvidenceRefs resolve inside the
// bundle. In strict mode the first unresolved ref is fatal; otherwise each
// is recorded as a warning on its owning cluster.
func checkEvidence(b *bundle.Bundle, clusters []cluster.Cluster, strict bool) error {
	for i := range clusters {
		for _, d := range clusters[i].Decisions {
			for _, ref := range d.EvidenceRefs {
				if _, ok := b.EvidenceRef(ref); ok {
					continue
				}
				if strict {
					return &EvidenceMissingError{ClusterID: clusters[i].ID, Ref: string(ref)}
				}
				clusters[i].Warnings = append(clusters[i].Warnings,
					fmt.Sprintf("evidence_missing: %s", ref))
			}
		}
	}
	return nil
}
