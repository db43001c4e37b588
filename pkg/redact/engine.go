package redact

import (
	"crypto/sha256"
	"encoding/hex"
)

// Mode selects how a matched or high-entropy token is replaced.
type Mode string

const (
	// ModeStandard replaces a match with the literal "[REDACTED]".
	ModeStandard Mode = "standard"

	// ModeHash replaces a match with "[HASH:xxxxxxxxxxxx]", the first 12 hex
	// characters of the SHA-256 digest of the original matched bytes.
	ModeHash Mode = "hash"
)

const standardToken = "[REDACTED]"

// Redact runs the pattern pass followed by the entropy pass over text and
// returns the redacted text along with a Report describing what fired.
// Redact is pure: it performs no I/O and is safe for concurrent use.
func Redact(text string, mode Mode) (string, Report) {
	report := newReport()
	token := tokenFunc(mode)

	text = applyOrderedPatterns(text, token, &report)

	entropyOut, n := redactEntropy(text, DefaultEntropyThreshold, token)
	report.hitEntropy(n)

	return entropyOut, report
}

// tokenFunc returns the replacement function for mode.
func tokenFunc(mode Mode) func(match []byte) string {
	switch mode {
	case ModeHash:
		return hashToken
	default:
		return func([]byte) string { return standardToken }
	}
}

func hashToken(match []byte) string {
	sum := sha256.Sum256(match)
	return "[HASH:" + hex.EncodeToString(sum[:])[:12] + "]"
}
