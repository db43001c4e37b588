// Package packplan assembles the final analysis artifact — the pack
// plan — from clustered, dependency-linked facts, and serializes it as
// deterministic canonical JSON.
package packplan

import (
	"time"

	"github.com/fredericcarre/xcprobe/pkg/cluster"
	"github.com/fredericcarre/xcprobe/pkg/dependency"
)

// SchemaVersion is the pack plan's own schema version, independent of the
// bundle's (§3 Manifest.SchemaVersion).
const SchemaVersion = "1"

// Thresholds records the confidence threshold the plan was evaluated
// against; clusters below it are flagged, not dropped.
type Thresholds struct {
	MinConfidence float64 `json:"min_confidence"`
}

// ClusterPlan is a cluster.Cluster as it appears in the pack plan, plus
// the flag a below-threshold confidence sets.
type ClusterPlan struct {
	cluster.Cluster
	BelowMinConfidence bool `json:"below_min_confidence,omitempty"`
}

// EdgePlan is a dependency.Edge as it appears in the pack plan.
type EdgePlan = dependency.Edge

// PackPlan is the full deterministic analysis output: §6's abridged
// schema, in full.
type PackPlan struct {
	Version            string        `json:"version"`
	SourceBundleDigest string        `json:"source_bundle_digest"`
	GeneratedAt        time.Time     `json:"generated_at"`
	Thresholds         Thresholds    `json:"thresholds"`
	Clusters           []ClusterPlan `json:"clusters"`
	Edges              []EdgePlan    `json:"edges"`
	StartupOrder       []string      `json:"startup_order"`
	Warnings           []string      `json:"warnings,omitempty"`
}
