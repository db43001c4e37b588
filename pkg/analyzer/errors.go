package analyzer

import "fmt"

// EvidenceMissingError reports a Decision whose EvidenceRefs do not resolve
// inside the bundle's evidence map. In StrictEvidence mode this is fatal;
// otherwise the analyzer records it as a pack-plan warning and continues.
type EvidenceMissingError struct {
	ClusterID string
	Ref       string
}

func (e *EvidenceMissingError) Error() string {
	return fmt.Sprintf("analyzer: cluster %q decision references missing evidence ref %q", e.ClusterID, e.Ref)
}
