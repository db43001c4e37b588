package packplan

import (
	"fmt"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/cluster"
	"github.com/fredericcarre/xcprobe/pkg/dag"
	"github.com/fredericcarre/xcprobe/pkg/dependency"
	"github.com/fredericcarre/xcprobe/pkg/redact"
)

// Build assembles a PackPlan from a clustered, dependency-resolved fact
// view: it computes per-cluster confidence (§4.8), collapses and
// topologically orders the dependency edges, flags clusters below
// minConfidence without dropping them, and runs the no-leak check before
// returning. generatedAt is stamped as-is; callers pass time.Now().UTC().
func Build(
	sourceBundleDigest string,
	clusters []cluster.Cluster,
	edges []dependency.Edge,
	minConfidence float64,
	generatedAt time.Time,
) (*PackPlan, error) {
	ids := make([]string, 0, len(clusters))
	for _, c := range clusters {
		ids = append(ids, c.ID)
	}

	dagResult := dag.Build(edges, ids)

	plans := make([]ClusterPlan, 0, len(clusters))
	for _, c := range clusters {
		confidence, warnings := dag.Confidence(c.Decisions)
		c.Confidence = confidence
		c.Warnings = append(append([]string(nil), c.Warnings...), warnings...)
		plans = append(plans, ClusterPlan{
			Cluster:            c,
			BelowMinConfidence: confidence < minConfidence,
		})
	}

	plan := &PackPlan{
		Version:            SchemaVersion,
		SourceBundleDigest: sourceBundleDigest,
		GeneratedAt:        generatedAt.UTC(),
		Thresholds:         Thresholds{MinConfidence: minConfidence},
		Clusters:           plans,
		Edges:              dagResult.Edges,
		StartupOrder:       dagResult.StartupOrder,
		Warnings:           dagResult.Warnings,
	}

	if field, leaked := checkNoLeak(plan); leaked {
		return nil, &RedactionLeakError{Field: field}
	}

	return plan, nil
}

func checkNoLeak(plan *PackPlan) (string, bool) {
	check := func(field, text string) (string, bool) {
		if text == "" {
			return "", false
		}
		_, report := redact.Redact(text, redact.ModeStandard)
		if !report.Empty() {
			return field, true
		}
		return "", false
	}

	for _, c := range plan.Clusters {
		if f, leak := check(fmt.Sprintf("clusters[%s].name", c.ID), c.Name); leak {
			return f, true
		}
		for _, d := range c.Decisions {
			if f, leak := check(fmt.Sprintf("clusters[%s].decisions[].decision", c.ID), d.Decision); leak {
				return f, true
			}
		}
		for _, w := range c.Warnings {
			if f, leak := check(fmt.Sprintf("clusters[%s].warnings[]", c.ID), w); leak {
				return f, true
			}
		}
	}
	for _, w := range plan.Warnings {
		if f, leak := check("warnings[]", w); leak {
			return f, true
		}
	}
	return "", false
}
