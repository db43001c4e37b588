// Package dependency extracts typed dependency edges between application
// clusters from configuration snippets, log tails, and environment
// variable names, the same way the redaction engine recognizes connection
// URIs, then resolves each hit to either an existing cluster or a newly
// synthesized external one.
package dependency

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fredericcarre/xcprobe/pkg/cluster"
	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
	"github.com/fredericcarre/xcprobe/pkg/scorer"
)

// DepType classifies a DependencyEdge by the kind of collaborator it
// points at.
type DepType string

const (
	DepDatabase DepType = "database"
	DepCache    DepType = "cache"
	DepQueue    DepType = "queue"
	DepAPI      DepType = "api"
)

// Edge is a single typed dependency from one cluster to another.
type Edge struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	DepType      DepType        `json:"dep_type"`
	EvidenceRefs []evidence.Ref `json:"evidence_refs"`
}

// confidenceURLHit and confidenceEnvNameOnly are the two confidence levels
// §4.7 assigns a dependency Decision: a URL literally present in a
// config/log snippet is stronger evidence than the mere presence of a
// suggestively-named environment variable whose value was redacted.
const (
	confidenceURLHit     = 0.8
	confidenceEnvNameOnly = 0.5
)

// schemeDepType and schemeAppType mirror the connection-URI scheme list
// the redaction engine recognizes (§4.2), mapped onto the dependency and
// cluster type vocabularies.
var schemeDepType = map[string]DepType{
	"postgres": DepDatabase, "mysql": DepDatabase, "mongodb": DepDatabase, "mssql": DepDatabase,
	"redis": DepCache,
	"amqp":  DepQueue,
}

var schemeAppType = map[string]cluster.AppType{
	"postgres": cluster.AppTypeDB, "mysql": cluster.AppTypeDB, "mongodb": cluster.AppTypeDB, "mssql": cluster.AppTypeDB,
	"redis": cluster.AppTypeCache,
	"amqp":  cluster.AppTypeQueue,
}

// reConnectionURL matches a (possibly already-redacted) connection URI:
// scheme, optional userinfo (which may already read "[REDACTED]" or
// "[HASH:...]"), host, and optional port.
var reConnectionURL = regexp.MustCompile(`(?i)(postgres|mysql|mongodb|redis|amqp|mssql)://(?:[^@/\s"']+@)?([^:/\s"']+)(?::(\d+))?`)

// envNamePattern maps a suggestive environment variable name substring to
// a scheme, used for the env-name-only evidence path where the URL itself
// was redacted away and only the variable's name survives.
var envNamePatterns = []struct {
	substr string
	scheme string
}{
	{"DATABASE_URL", "postgres"},
	{"POSTGRES", "postgres"},
	{"MYSQL", "mysql"},
	{"MONGO", "mongodb"},
	{"REDIS", "redis"},
	{"AMQP", "amqp"},
	{"RABBITMQ", "amqp"},
	{"MSSQL", "mssql"},
	{"SQLSERVER", "mssql"},
}

func schemeFromEnvName(name string) (string, bool) {
	upper := strings.ToUpper(name)
	for _, p := range envNamePatterns {
		if strings.Contains(upper, p.substr) {
			return p.scheme, true
		}
	}
	return "", false
}

// Detect scans every ConfigSnippet's redacted text and every business
// process's env names for dependency hits, resolves each hit's host to an
// existing cluster or synthesizes a new external one, and returns the
// extended cluster slice, the discovered edges, and the Decisions to
// attach to each originating cluster for the confidence formula in C8.
func Detect(set *facts.Set, clusters []cluster.Cluster, prefix string) ([]cluster.Cluster, []Edge, map[string][]scorer.Decision) {
	resolver := newResolver(clusters, prefix)
	decisions := make(map[string][]scorer.Decision)
	var edges []Edge

	for _, snippet := range set.Configs {
		originCluster, ok := resolver.clusterOwningConfig(snippet.OriginalPath)
		if !ok {
			continue
		}
		for _, hit := range findURLHits(snippet.RedactedText) {
			to := resolver.resolve(hit.host, hit.port, hit.scheme)
			ref := evidence.Ref(snippet.OriginalPath)
			edges = append(edges, Edge{From: originCluster, To: to, DepType: schemeDepType[hit.scheme], EvidenceRefs: []evidence.Ref{ref}})
			decisions[originCluster] = append(decisions[originCluster], scorer.Decision{
				Decision:     fmt.Sprintf("config %q references a %s connection to %q", snippet.OriginalPath, hit.scheme, hit.host),
				Confidence:   confidenceURLHit,
				HasEvidence:  true,
				EvidenceRefs: []evidence.Ref{ref},
				Weight:       1.0,
			})
		}
	}

	for ci := range clusters {
		c := clusters[ci]
		for _, envName := range c.EnvNames {
			scheme, ok := schemeFromEnvName(envName)
			if !ok {
				continue
			}
			if resolver.schemeAlreadyLinked(c.ID, scheme, edges) {
				continue
			}
			to := resolver.resolveEnvOnly(scheme, envName)
			edges = append(edges, Edge{From: c.ID, To: to, DepType: schemeDepType[scheme], EvidenceRefs: nil})
			decisions[c.ID] = append(decisions[c.ID], scorer.Decision{
				Decision:     fmt.Sprintf("env name %q suggests a %s dependency with no config/log URL backing it", envName, scheme),
				Confidence:   confidenceEnvNameOnly,
				HasEvidence:  true,
				EvidenceRefs: nil,
				Weight:       0.5,
			})
		}
	}

	return resolver.clusters, edges, decisions
}

type urlHit struct {
	scheme string
	host   string
	port   int
}

func findURLHits(text string) []urlHit {
	var hits []urlHit
	matches := reConnectionURL.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		scheme := strings.ToLower(m[1])
		host := m[2]
		port := 0
		if m[3] != "" {
			port, _ = strconv.Atoi(m[3])
		}
		hits = append(hits, urlHit{scheme: scheme, host: host, port: port})
	}
	return hits
}

// resolver resolves a dependency hit's host to a cluster id, synthesizing
// new external clusters as needed, and keeps the growing cluster slice in
// dense "<prefix>-<n>" order.
type resolver struct {
	clusters []cluster.Cluster
	prefix   string
	byID     map[string]int
	external map[string]string // (scheme, host, port) key -> cluster id
}

func newResolver(clusters []cluster.Cluster, prefix string) *resolver {
	if prefix == "" {
		prefix = cluster.DefaultPrefix
	}
	r := &resolver{clusters: append([]cluster.Cluster(nil), clusters...), prefix: prefix, byID: make(map[string]int), external: make(map[string]string)}
	for i, c := range r.clusters {
		r.byID[c.ID] = i
	}
	return r
}

// clusterOwningConfig finds the cluster a config path belongs to. A
// ConfigSnippet carries no pid/service link in the bundle's archive
// metadata, so ownership is resolved from the path alone: the first
// cluster in traversal order whose AppType is not AppTypeOther and whose
// Name is a substring of path. When no cluster matches, the first cluster
// in traversal order is used. It reports false only when there are no
// clusters.
func (r *resolver) clusterOwningConfig(path string) (string, bool) {
	if len(r.clusters) == 0 {
		return "", false
	}
	for _, c := range r.clusters {
		if c.AppType != cluster.AppTypeOther && strings.Contains(path, c.Name) {
			return c.ID, true
		}
	}
	return r.clusters[0].ID, true
}

func (r *resolver) schemeAlreadyLinked(from, scheme string, edges []Edge) bool {
	for _, e := range edges {
		if e.From == from && e.DepType == schemeDepType[scheme] {
			return true
		}
	}
	return false
}

// resolve maps a (host, port, scheme) hit to a cluster id: a literal name
// match wins first; failing that, a unique existing cluster listening on
// the parsed port and classified for the right dep_type is treated as the
// intended internal target (covers a hostname like "db" that doesn't
// literally match the owning unit's systemd name); otherwise a new
// external cluster is synthesized, deduplicated by (scheme, host, port).
func (r *resolver) resolve(host string, port int, scheme string) string {
	if id, ok := r.matchByName(host); ok {
		return id
	}
	if port != 0 {
		if id, ok := r.matchByPort(port, scheme); ok {
			return id
		}
	}
	return r.synthesize(scheme, host, port)
}

func (r *resolver) resolveEnvOnly(scheme, envName string) string {
	return r.synthesize(scheme, "env:"+envName, 0)
}

func (r *resolver) matchByName(host string) (string, bool) {
	lower := strings.ToLower(host)
	for _, c := range r.clusters {
		if strings.ToLower(c.Name) == lower || strings.ToLower(c.ID) == lower {
			return c.ID, true
		}
		for _, svc := range c.ServiceNames {
			trimmed := strings.TrimSuffix(strings.TrimSuffix(svc, ".service"), ".timer")
			if strings.ToLower(trimmed) == lower || strings.ToLower(svc) == lower {
				return c.ID, true
			}
		}
	}
	return "", false
}

func (r *resolver) matchByPort(port int, scheme string) (string, bool) {
	wantType, hasWantType := schemeAppType[scheme]
	var match string
	count := 0
	for _, c := range r.clusters {
		for _, p := range c.Ports {
			if p.Port != port {
				continue
			}
			if hasWantType && c.AppType != wantType {
				continue
			}
			match = c.ID
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

func (r *resolver) synthesize(scheme, host string, port int) string {
	key := fmt.Sprintf("%s|%s|%d", scheme, host, port)
	if id, ok := r.external[key]; ok {
		return id
	}
	id := fmt.Sprintf("%s-%d", r.prefix, len(r.clusters))
	appType, ok := schemeAppType[scheme]
	if !ok {
		appType = cluster.AppTypeOther
	}
	newCluster := cluster.Cluster{
		ID:      id,
		Name:    host,
		AppType: appType,
	}
	if port != 0 {
		newCluster.Ports = []facts.PortBinding{{Protocol: facts.ProtocolTCP, Port: port, Address: host}}
	}
	r.clusters = append(r.clusters, newCluster)
	r.byID[id] = len(r.clusters) - 1
	r.external[key] = id
	return id
}

// SortEdges orders edges deterministically by (from, to, dep_type), the
// ordering the DAG builder's cycle-breaking (§4.8) depends on.
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].DepType < edges[j].DepType
	})
}
