package cluster

import (
	"github.com/fredericcarre/xcprobe/pkg/facts"
	"github.com/fredericcarre/xcprobe/pkg/scorer"
)

// AppType classifies the role a Cluster plays, used both for pack-plan
// output and for default dep_type resolution in the dependency detector.
type AppType string

const (
	AppTypeAPI    AppType = "api"
	AppTypeWeb    AppType = "web"
	AppTypeDB     AppType = "db"
	AppTypeCache  AppType = "cache"
	AppTypeQueue  AppType = "queue"
	AppTypeBatch  AppType = "batch"
	AppTypeWorker AppType = "worker"
	AppTypeOther  AppType = "other"
)

// Cluster is a group of processes and services the clusterer has decided
// represent a single deployable application. Confidence is left zero here;
// the DAG builder (C8) computes it from the aggregated Decisions once
// dependency edges are known.
type Cluster struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	AppType      AppType              `json:"app_type"`
	ProcessPIDs  []int                `json:"-"`
	ServiceNames []string             `json:"-"`
	Ports        []facts.PortBinding  `json:"ports"`
	EnvNames     []string             `json:"env_names"`
	ConfigPaths  []string             `json:"-"`
	Decisions    []scorer.Decision    `json:"decisions"`
	Confidence   float64              `json:"confidence"`
	Warnings     []string             `json:"warnings,omitempty"`
}
