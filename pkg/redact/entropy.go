package redact

import (
	"math"
	"regexp"
	"strings"
)

// DefaultEntropyThreshold is the Shannon entropy (base 2, over the raw byte
// histogram) at or above which a candidate token is redacted.
const DefaultEntropyThreshold = 4.0

// MinEntropyTokenLen and MaxEntropyTokenLen bound the candidate tokens the
// entropy pass considers (spec.md §4.2).
const (
	MinEntropyTokenLen = 16
	MaxEntropyTokenLen = 256
)

// entropyToken matches runs of non-whitespace, non-quote characters; these
// are the candidate tokens for the entropy pass. Quotes are excluded so a
// token doesn't spuriously swallow a trailing quote from a key="value" pair.
var entropyToken = regexp.MustCompile(`[^\s"']+`)

// shannonEntropy computes the Shannon entropy, in bits, of the byte
// distribution of b. It operates on the raw byte histogram, not on
// character classes, so it tolerates non-UTF-8 input.
func shannonEntropy(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}

	var hist [256]int
	for _, c := range b {
		hist[c]++
	}

	n := float64(len(b))
	var entropy float64
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// redactEntropy scans text for tokens in [MinEntropyTokenLen,
// MaxEntropyTokenLen] whose Shannon entropy is >= threshold and replaces
// them using replacement. It runs after the pattern pass. Connection URIs
// (already handled by the pattern pass) and tokens containing a redaction
// placeholder are skipped.
func redactEntropy(text string, threshold float64, replacement func(match []byte) string) (string, int) {
	hits := 0
	out := entropyToken.ReplaceAllStringFunc(text, func(tok string) string {
		if len(tok) < MinEntropyTokenLen || len(tok) > MaxEntropyTokenLen {
			return tok
		}
		if reConnectionURI.MatchString(tok) || strings.Contains(tok, standardToken) || strings.Contains(tok, "[HASH:") {
			return tok
		}
		if shannonEntropy([]byte(tok)) < threshold {
			return tok
		}
		hits++
		return replacement([]byte(tok))
	})
	return out, hits
}
