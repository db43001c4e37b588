package packplan

import (
	"bytes"
	"encoding/json"
	"fmt"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// MarshalCanonical serializes a PackPlan as RFC 8785 JSON Canonicalization
// Scheme bytes (sorted object keys, no insignificant whitespace, ECMA-262
// number formatting) with a single trailing newline — the byte-for-byte
// determinism §4.9 requires.
func MarshalCanonical(plan *PackPlan) ([]byte, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("packplan: marshal: %w", err)
	}
	canon, err := cyberphone.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("packplan: canonicalize: %w", err)
	}
	if !bytes.HasSuffix(canon, []byte("\n")) {
		canon = append(canon, '\n')
	}
	return canon, nil
}
