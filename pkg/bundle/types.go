package bundle

import (
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
)

// SchemaVersion is the manifest schema version this codec reads and writes.
// Bumped only on a breaking change to Manifest's required fields.
const SchemaVersion = "1"

const (
	memberManifest   = "manifest.json"
	memberAudit      = "audit.jsonl"
	memberChecksums  = "checksums.json"
	evidencePrefix   = "evidence/"
	attachmentPrefix = "attachments/"
)

// Manifest is the structured fact model persisted at manifest.json. It
// wraps facts.Set with the schema version and collection metadata needed
// to interpret the bundle independently of the run that produced it.
type Manifest struct {
	SchemaVersion string    `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Host          string    `json:"host"`
	CollectedAt   time.Time `json:"collected_at"`
	Facts         facts.Set `json:"facts"`
}

// Attachment is a redacted file snippet captured from the target alongside
// its original path, stored under attachments/ and referenced from
// facts.ConfigSnippet.OriginalPath.
type Attachment struct {
	Path string
	Data []byte
}

// Bundle is the fully loaded, in-memory representation of a bundle archive:
// the manifest, the audit trail, and every evidence/attachment blob keyed
// by its archive member path. Loaded once at analysis start and held
// immutable for the run.
type Bundle struct {
	Manifest    Manifest
	Audit       []evidence.Record
	Evidence    map[evidence.Ref][]byte
	Attachments map[string][]byte

	// Digest is the bundle's own sha256 digest (of the archive file as a
	// whole), recorded in the pack plan as source_bundle_digest.
	Digest string
}

// EvidenceRef resolves an evidence reference to its raw content, satisfying
// Data Model invariant 1 (every has_evidence decision resolves to an
// archive evidence_ref).
func (b *Bundle) EvidenceRef(ref evidence.Ref) ([]byte, bool) {
	data, ok := b.Evidence[ref]
	return data, ok
}
