// Package redact implements XCProbe's redaction engine.
//
// # Overview
//
// redact.Redact is a pure, reentrant function of (text, mode): it never
// touches the filesystem or network, and the same input always produces
// the same output. It is run twice in the lifetime of a piece of evidence:
// once during collection (on raw command output, before it is written to
// the bundle) and again, defensively, during analysis over any string that
// will appear in a pack plan (bundle/spec.md §4.2, §3 invariant 5).
//
// # Detection strategies
//
// Two passes run in a fixed order:
//
//  1. Pattern pass — an ordered, anchored regex ruleset covering key=value
//     secrets, HTTP Authorization headers, database/queue connection URIs
//     (userinfo only), AWS credentials, and PEM private key blocks.
//  2. Entropy pass — tokens of length [16, 256] whose Shannon entropy (base
//     2, over the raw byte histogram) is at or above DefaultEntropyThreshold
//     (4.0) are redacted. Redact always applies this fixed threshold; it
//     takes no threshold argument. Connection URIs are left to the
//     pattern pass and are not entropy-scanned.
//
// The entropy pass always runs over the pattern pass's output, and both
// passes leave existing "[REDACTED]" / "[HASH:...]" placeholders in place
// without counting them. This is what makes Redact idempotent: redacting
// an already-redacted string is a no-op and produces a zero-hit Report.
//
// # Modes
//
//   - ModeStandard replaces a match with the literal "[REDACTED]".
//   - ModeHash replaces a match with "[HASH:xxxxxxxxxxxx]", the first 12 hex
//     characters of the SHA-256 digest of the original matched bytes — useful
//     when an analyst needs to confirm two redacted values were equal
//     without ever seeing either one.
package redact
