package bundle

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fredericcarre/xcprobe/pkg/evidence"
)

// digestPrefix is prepended to every hex-encoded SHA-256 digest recorded in
// checksums.json, matching the wire format C1 specifies.
const digestPrefix = "sha256:"

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return digestPrefix + hex.EncodeToString(sum[:])
}

// memberEntry is a single archive member awaiting write, in final order.
type memberEntry struct {
	path string
	data []byte
}

// Write serializes a Bundle as a tar+gzip archive to w, emitting members in
// the fixed order manifest.json, audit.jsonl, evidence/* (sorted by path),
// attachments/* (sorted by path), checksums.json last. Every member's
// digest is recorded in checksums.json.
func Write(w io.Writer, b *Bundle) error {
	manifestJSON, err := json.Marshal(b.Manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestJSON = append(manifestJSON, '\n')

	var auditBuf bytes.Buffer
	for _, rec := range b.Audit {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record seq %d: %w", rec.Seq, err)
		}
		auditBuf.Write(line)
		auditBuf.WriteByte('\n')
	}

	var entries []memberEntry
	entries = append(entries, memberEntry{path: memberManifest, data: manifestJSON})
	entries = append(entries, memberEntry{path: memberAudit, data: auditBuf.Bytes()})

	evidenceRefs := make([]evidence.Ref, 0, len(b.Evidence))
	for ref := range b.Evidence {
		evidenceRefs = append(evidenceRefs, ref)
	}
	sort.Slice(evidenceRefs, func(i, j int) bool { return evidenceRefs[i] < evidenceRefs[j] })
	for _, ref := range evidenceRefs {
		entries = append(entries, memberEntry{path: string(ref), data: b.Evidence[ref]})
	}

	attachmentPaths := make([]string, 0, len(b.Attachments))
	for path := range b.Attachments {
		attachmentPaths = append(attachmentPaths, path)
	}
	sort.Strings(attachmentPaths)
	for _, path := range attachmentPaths {
		entries = append(entries, memberEntry{path: path, data: b.Attachments[path]})
	}

	checksums := make(map[string]string, len(entries)+1)
	for _, e := range entries {
		checksums[e.path] = digestOf(e.data)
	}
	checksumsJSON, err := json.MarshalIndent(checksums, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checksums: %w", err)
	}
	checksumsJSON = append(checksumsJSON, '\n')
	entries = append(entries, memberEntry{path: memberChecksums, data: checksumsJSON})

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	fixed := time.Unix(0, 0).UTC()
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.path,
			Mode:    0o644,
			Size:    int64(len(e.data)),
			ModTime: fixed,
			Uid:     0,
			Gid:     0,
			Uname:   "xcprobe",
			Gname:   "xcprobe",
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header for %s: %w", e.path, err)
		}
		if _, err := tw.Write(e.data); err != nil {
			return fmt.Errorf("write tar entry %s: %w", e.path, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return nil
}

// Read deserializes a tar+gzip archive from r into a Bundle. It first loads
// checksums.json, then streams the archive verifying every member's digest
// against it; a mismatch or a member missing from checksums.json fails
// with IntegrityError. The manifest is then schema-validated; a missing
// required field or unsupported schema version fails with SchemaError.
func Read(r io.Reader) (*Bundle, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	bundleDigest := digestOf(raw)

	members, err := readAllMembers(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	checksumsRaw, ok := members[memberChecksums]
	if !ok {
		return nil, &IntegrityError{Cause: errors.New("missing checksums.json")}
	}
	var checksums map[string]string
	if err := json.Unmarshal(checksumsRaw, &checksums); err != nil {
		return nil, &IntegrityError{Member: memberChecksums, Cause: err}
	}

	for path, data := range members {
		if path == memberChecksums {
			continue
		}
		want, ok := checksums[path]
		if !ok {
			return nil, &IntegrityError{Member: path, Cause: errors.New("member absent from checksums.json")}
		}
		got := digestOf(data)
		if got != want {
			return nil, &IntegrityError{Member: path, Cause: fmt.Errorf("digest mismatch: want %s, got %s", want, got)}
		}
	}

	manifestRaw, ok := members[memberManifest]
	if !ok {
		return nil, &SchemaError{Reason: "missing manifest.json"}
	}
	manifest, err := validateManifest(manifestRaw)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Manifest:    *manifest,
		Evidence:    make(map[evidence.Ref][]byte),
		Attachments: make(map[string][]byte),
		Digest:      bundleDigest,
	}

	if auditRaw, ok := members[memberAudit]; ok {
		scanner := bufio.NewScanner(bytes.NewReader(auditRaw))
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var rec evidence.Record
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, &SchemaError{Reason: "malformed audit record", Cause: err}
			}
			b.Audit = append(b.Audit, rec)
		}
	}

	for path, data := range members {
		switch {
		case strings.HasPrefix(path, evidencePrefix):
			b.Evidence[evidence.Ref(path)] = data
		case strings.HasPrefix(path, attachmentPrefix):
			b.Attachments[path] = data
		}
	}

	return b, nil
}

func readAllMembers(r io.Reader) (map[string][]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, &IntegrityError{Cause: fmt.Errorf("open gzip stream: %w", err)}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	members := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IntegrityError{Cause: fmt.Errorf("read tar stream: %w", err)}
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, &IntegrityError{Member: hdr.Name, Cause: fmt.Errorf("read tar entry: %w", err)}
		}
		members[hdr.Name] = data
	}
	return members, nil
}

// manifestRequiredFields are the fields a manifest must declare. Any other
// top-level field present in the JSON is tolerated (forward compatibility);
// any of these absent fails BundleSchema.
var manifestRequiredFields = []string{"schema_version", "run_id", "host", "collected_at", "facts"}

func validateManifest(raw []byte) (*Manifest, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &SchemaError{Reason: "manifest is not a JSON object", Cause: err}
	}
	for _, field := range manifestRequiredFields {
		if _, ok := generic[field]; !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("missing required field %q", field)}
		}
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, &SchemaError{Reason: "manifest fields do not match expected types", Cause: err}
	}
	if manifest.SchemaVersion != SchemaVersion {
		return nil, &SchemaError{Reason: fmt.Sprintf("unsupported schema_version %q, expected %q", manifest.SchemaVersion, SchemaVersion)}
	}
	return &manifest, nil
}
