package packplan

import "fmt"

// RedactionLeakError is returned when a pack-plan string field would itself
// be redacted if rescanned — a non-recoverable defect per §7: the emitter
// refuses to write rather than risk shipping a secret.
type RedactionLeakError struct {
	Field string
}

func (e *RedactionLeakError) Error() string {
	return fmt.Sprintf("packplan: redaction leak detected in field %q: emission refused", e.Field)
}
