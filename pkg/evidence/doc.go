// Package evidence implements the append-only evidence store that backs a
// collection run: one AuditRecord and one raw evidence file per executed
// command.
//
// # Overview
//
// Each call to Store.Append records a completed (or timed-out, or failed)
// command under the next sequence number. Sequence numbers are contiguous —
// a gap in the resulting audit.jsonl is itself evidence of a corrupted or
// tampered bundle. Evidence content is stored exactly as captured; redaction
// runs later, over a copy, right before the bundle is sealed.
//
// # Truncation
//
// Evidence content larger than MaxEvidenceBytes (8 MiB by default) is cut
// off and marked with a trailing "[TRUNCATED after N bytes]" footer rather
// than dropped outright.
//
// # Concurrency
//
// Store serializes all appends under a single mutex so that sequence
// numbers reflect completion order, not submission order: callers may
// submit concurrently from a worker pool without additional coordination.
package evidence
