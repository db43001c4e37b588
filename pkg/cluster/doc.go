// Package cluster groups scored business processes into deployable
// application clusters. It unions processes on service identity, shared
// working directory, shared EnvironmentFile path, and business-crossing
// parent/child pairs, then names and classifies each resulting group.
package cluster
