// Package bundle implements the canonical on-disk exchange format between
// the collector and the analyzer: a tar+gzip archive with a fixed member
// order, per-member SHA-256 digests recorded in checksums.json, and a
// schema-validated manifest wrapping the parsed fact model.
//
// Write emits archive members in a fixed order so two bundles produced
// from identical inputs are byte-identical. Read verifies every member's
// digest before anything else runs, then schema-validates the manifest,
// failing closed (IntegrityError, SchemaError) rather than tolerating a
// partially-corrupt archive.
package bundle
